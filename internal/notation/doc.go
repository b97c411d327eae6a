// Package notation models the relativistic level notation used by the FAC
// structure solver: sub-shells such as 2p+4(0), coupled level terms, energy
// levels, the non-relativistic configuration groups fed to the solver, and
// the atom that owns them.
//
// Values are immutable and compare by their canonical strings. Every parse
// or validation failure wraps ErrInvalidNotation.
package notation
