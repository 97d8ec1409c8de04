// Package analysis provides pharmacokinetic summary statistics over
// simulated or experimental concentration-time series:
//
//   - [Peak]: maximum value and time to peak
//   - [AUC]: trapezoidal area under the curve
//   - [HalfLife]: elapsed time from peak to half the peak excursion
//   - [Compare]: one summary row per simulation, order preserving
//   - [Describe], [ConfidenceInterval]: descriptive statistics
//
// Time and value slices are taken in whatever unit the caller supplies;
// no implicit conversion happens at this layer.
package analysis
