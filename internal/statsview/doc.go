// Package statsview optionally serves runtime statistics of the emulator
// process over HTTP. The server is only compiled in when the statsview build
// tag is present.
//
// After launch, graphs are viewable at:
//
//	localhost:12600/debug/statsview
//
// and the standard pprof endpoints at:
//
//	localhost:12600/debug/pprof/
package statsview
