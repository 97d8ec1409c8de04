// Package pk provides core primitives for nitrite pharmacokinetics.
//
// The package defines the fundamental types for simulating plasma
// nitrite dynamics after lozenge dosing:
//
//   - [State]: the three-compartment concentration vector
//   - [Parameters]: immutable simulation parameters
//   - [Model]: the ODE right-hand side (dX/dt = f(X, t))
//   - [CGMP], [Vasodilation]: max-normalized downstream responses
//
// # Compartments
//
// The state vector tracks nitrite concentration (µM) in three pools:
// plasma, tissue (muscle and organs) and erythrocyte-bound. Doses enter
// the plasma compartment as short high-flux pulses, exchange with tissue
// bidirectionally, and are scavenged by red blood cells, where they are
// converted to bioactive NO at a rate modulated by oxygen saturation.
//
// The initial-condition split and the total-body/bioactive aggregation
// weights are modeling constants without a published derivation; they
// are exported so they can be audited or overridden per study.
package pk
