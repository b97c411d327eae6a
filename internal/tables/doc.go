// Package tables parses the fixed-format text tables printed by the FAC
// solver: energy levels, radiative transitions, level populations and
// collision strengths. Parsers match rows with regular expressions and skip
// everything else, so headers and comments need no special handling.
package tables
