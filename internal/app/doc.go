// Package app contains the application lifecycle: it merges command-line
// stages with manifest stages, builds the toolchain for the selected host
// and runs the pipeline, decoupled from any specific entrypoint.
package app
