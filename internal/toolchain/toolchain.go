package toolchain

import "context"

// Fixed target versions for every run.
const (
	VulkanTargetEnv = "vulkan1.3"
	GLSLVersion     = "460"
	MSLVersion      = "20100"
)

// Tools names the executables the toolchain invokes. Each may be a bare
// name resolved through PATH or an absolute path.
type Tools struct {
	DXC        string
	SPIRVCross string
	Xcrun      string
	MetalSDK   string
}

// DefaultTools returns the tool names used when nothing is configured.
func DefaultTools() Tools {
	return Tools{
		DXC:        "dxc",
		SPIRVCross: "spirv-cross",
		Xcrun:      "xcrun",
		MetalSDK:   "macosx",
	}
}

// Merge returns t with every non-empty field of override applied on top.
func (t Tools) Merge(override Tools) Tools {
	if override.DXC != "" {
		t.DXC = override.DXC
	}
	if override.SPIRVCross != "" {
		t.SPIRVCross = override.SPIRVCross
	}
	if override.Xcrun != "" {
		t.Xcrun = override.Xcrun
	}
	if override.MetalSDK != "" {
		t.MetalSDK = override.MetalSDK
	}
	return t
}

// Toolchain assembles the argument vectors for each external tool and hands
// them to a Runner.
type Toolchain struct {
	tools  Tools
	runner Runner
}

// New creates a Toolchain. Empty fields in tools fall back to DefaultTools.
func New(tools Tools, runner Runner) *Toolchain {
	return &Toolchain{
		tools:  DefaultTools().Merge(tools),
		runner: runner,
	}
}

// Tools returns the resolved tool names.
func (t *Toolchain) Tools() Tools {
	return t.tools
}

// HLSLToSPIRV compiles an HLSL entry point to a SPIR-V binary for Vulkan.
func (t *Toolchain) HLSLToSPIRV(ctx context.Context, src, entry, profile, out string) error {
	args := dxcArgs(src, entry, profile, out)
	args = append(args, "-spirv", "-fspv-target-env="+VulkanTargetEnv)
	return t.runner.Run(ctx, t.tools.DXC, args...)
}

// HLSLToDXBC compiles an HLSL entry point to native DirectX bytecode.
func (t *Toolchain) HLSLToDXBC(ctx context.Context, src, entry, profile, out string) error {
	return t.runner.Run(ctx, t.tools.DXC, dxcArgs(src, entry, profile, out)...)
}

// SPIRVToGLSL translates a SPIR-V binary to GLSL source.
func (t *Toolchain) SPIRVToGLSL(ctx context.Context, spv, out string) error {
	return t.runner.Run(ctx, t.tools.SPIRVCross,
		spv,
		"--version", GLSLVersion,
		"--output", out,
	)
}

// SPIRVToMSL translates a SPIR-V binary to Metal Shading Language with
// argument buffers and padded fragment outputs.
func (t *Toolchain) SPIRVToMSL(ctx context.Context, spv, out string) error {
	return t.runner.Run(ctx, t.tools.SPIRVCross,
		spv,
		"--msl",
		"--msl-version", MSLVersion,
		"--msl-argument-buffers",
		"--msl-pad-fragment-output",
		"--output", out,
	)
}

// MetalObject compiles MSL source to a Metal intermediate (.air) object.
func (t *Toolchain) MetalObject(ctx context.Context, msl, out string) error {
	return t.runner.Run(ctx, t.tools.Xcrun,
		"-sdk", t.tools.MetalSDK,
		"metal", "-c", msl,
		"-o", out,
	)
}

// MetalLibrary links Metal objects, in the given order, into one library.
func (t *Toolchain) MetalLibrary(ctx context.Context, objects []string, out string) error {
	args := []string{"-sdk", t.tools.MetalSDK, "metallib"}
	args = append(args, objects...)
	args = append(args, "-o", out)
	return t.runner.Run(ctx, t.tools.Xcrun, args...)
}

func dxcArgs(src, entry, profile, out string) []string {
	return []string{
		"-T", profile,
		"-E", entry,
		"-Fo", out,
		src,
	}
}
