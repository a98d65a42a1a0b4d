// Package stage defines a single shader pipeline stage: what it compiles
// (type, source path, entry point), how a `--stage` argument group or a
// manifest block is turned into one, and where its artifacts are written.
package stage
