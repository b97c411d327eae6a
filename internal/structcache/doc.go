// Package structcache keeps one directory of solver output per atom and
// principal-number threshold, keyed "<symbol> <base config> up to n=<max_n>".
//
// Generate runs the structure solver in a staging directory, writes a
// manifest with table checksums and renames the staging directory into
// place, all under a per-key lock file. A directory with a valid manifest is
// complete and never modified again; Remove is the only way an entry goes
// away.
package structcache
