// Package pipeline runs declared shader stages through the external
// toolchain. A Compiler handles one stage: it validates the input, lays out
// the output tree and invokes the four translations plus, on Metal-capable
// hosts, the Metal object compiler. A Pipeline runs every stage strictly in
// declaration order and links the collected Metal objects into one library.
//
// Every failure is fatal. Nothing is retried, skipped or cleaned up, and
// outputs are always rebuilt from scratch.
package pipeline
