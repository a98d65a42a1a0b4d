// Package toolchain wraps the external shader tools the pipeline drives:
// the DirectX shader compiler (dxc), SPIRV-Cross, and on macOS the Metal
// compiler and library linker reached through xcrun. Every method is one
// blocking process invocation; nothing is compiled in-process.
package toolchain
