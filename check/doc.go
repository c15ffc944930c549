// Package check contains the building blocks of the mxprobe pipeline:
// address parsing, MX resolution and the probe strategies.
// These types can be used directly, but the recommended approach is
// to use the Engine from the github.com/optimode/mxprobe package.
package check
