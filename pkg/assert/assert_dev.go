//go:build !release

// Package assert guards internal invariants. A failed assertion is a programming error in this
// module, never a data error, so it panics in development builds and compiles away in release
// builds (-tags release).
package assert

import "fmt"

// That panics with the formatted message if cond is false.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
