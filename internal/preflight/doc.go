// Package preflight provides readiness checks for the solver binaries and
// the filesystem paths gaincalc depends on.
//
// The CLI "doctor" command runs RunAll and prints every result; the
// individual checks are exported for callers that only need one of them.
package preflight
