// Package magetasks holds the build, test and lint tasks behind the Magefile.
//
// Every task shells out to the Go toolchain exactly once through the same
// runner. The toolchain's output is streamed unchanged and its exit status
// becomes the status mage exits with.
package magetasks
