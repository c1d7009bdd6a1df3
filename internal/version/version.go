// Package version contains information on the current version of the
// program. It is split from the main program for easy use by both
// cmd/etymologd and cmd/etymologsh.
package version

// Current is the string representing the current version of Etymolog.
const Current = "0.1.0"
