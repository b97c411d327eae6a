// Package fac drives the FAC solver programs. A Session records the calls of
// one sfac or scrm script; Client writes the script into a working directory
// and runs the matching binary there as a child process through an Executor.
package fac
