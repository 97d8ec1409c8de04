package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/n1o1-labs/nodyn/internal/pk"
)

func TestHypoxiaFlagRouting(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	addRunFlags(cmd)

	p := pk.NewParameters()

	normal, err := simulateRun(cmd, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cmd.Flags().Set("hypoxia", "0.8"); err != nil {
		t.Fatal(err)
	}
	hypoxic, err := simulateRun(cmd, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// reduced scavenging under hypoxia raises plasma exposure
	var aucNormal, aucHypoxic float64
	for i := 1; i < normal.Len(); i++ {
		aucNormal += 0.5 * (normal.Plasma[i] + normal.Plasma[i-1]) * (normal.Hours[i] - normal.Hours[i-1])
		aucHypoxic += 0.5 * (hypoxic.Plasma[i] + hypoxic.Plasma[i-1]) * (hypoxic.Hours[i] - hypoxic.Hours[i-1])
	}
	if aucHypoxic <= aucNormal {
		t.Errorf("hypoxia run did not raise exposure: %f <= %f", aucHypoxic, aucNormal)
	}
}
