package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/shadergrid/internal/ctxlog"
	"github.com/vk/shadergrid/internal/fsutil"
	"github.com/vk/shadergrid/internal/stage"
)

// ErrInputNotFound is returned when a stage's HLSL source does not exist.
var ErrInputNotFound = errors.New("HLSL file not found")

// Tools is the set of external tool invocations a stage needs.
// *toolchain.Toolchain implements it.
type Tools interface {
	HLSLToSPIRV(ctx context.Context, src, entry, profile, out string) error
	HLSLToDXBC(ctx context.Context, src, entry, profile, out string) error
	SPIRVToGLSL(ctx context.Context, spv, out string) error
	SPIRVToMSL(ctx context.Context, spv, out string) error
	MetalObject(ctx context.Context, msl, out string) error
	MetalLibrary(ctx context.Context, objects []string, out string) error
}

// Result describes what a compiled stage produced.
type Result struct {
	Stage   stage.Stage
	Layout  stage.Layout
	Profile string
	// Artifacts holds the SPIR-V, DXBC, GLSL and MSL outputs, in that order.
	Artifacts []string
	// Object is the compiled Metal object, empty when the host cannot
	// build Metal.
	Object string
}

// Compiler compiles a single stage.
type Compiler struct {
	tools Tools
	metal bool
}

// NewCompiler creates a Compiler. metal enables the Metal object step and
// is decided once by the caller from the host platform.
func NewCompiler(tools Tools, metal bool) *Compiler {
	return &Compiler{tools: tools, metal: metal}
}

// Validate checks that the stage's input exists and its type resolves to a
// target profile, in that order, and returns the profile.
func (c *Compiler) Validate(s stage.Stage) (string, error) {
	if !fsutil.IsRegularFile(s.Path) {
		return "", fmt.Errorf("%w: %s", ErrInputNotFound, s.Path)
	}
	return s.Type.Profile()
}

// Compile runs every step for one stage. The first failing step aborts the
// stage and its error is returned.
func (c *Compiler) Compile(ctx context.Context, s stage.Stage) (*Result, error) {
	ctx, logger := ctxlog.With(ctx, "stage", string(s.Type), "path", s.Path)

	profile, err := c.Validate(s)
	if err != nil {
		return nil, err
	}

	layout := stage.NewLayout(s)
	if err := fsutil.EnsureDirs(layout.Dirs()...); err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Compiling %s stage: %s (%s)", s.Type, s.Path, s.Fun), "profile", profile)

	res := &Result{Stage: s, Layout: layout, Profile: profile}
	steps := []struct {
		out string
		run func() error
	}{
		{layout.SPIRV(), func() error { return c.tools.HLSLToSPIRV(ctx, s.Path, s.Fun, profile, layout.SPIRV()) }},
		{layout.DXBC(), func() error { return c.tools.HLSLToDXBC(ctx, s.Path, s.Fun, profile, layout.DXBC()) }},
		{layout.GLSL(), func() error { return c.tools.SPIRVToGLSL(ctx, layout.SPIRV(), layout.GLSL()) }},
		{layout.MSL(), func() error { return c.tools.SPIRVToMSL(ctx, layout.SPIRV(), layout.MSL()) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return nil, fmt.Errorf("%s stage %s: %w", s.Type, s.Path, err)
		}
		res.Artifacts = append(res.Artifacts, step.out)
	}

	if !c.metal {
		logger.Debug("Host cannot build Metal, skipping Metal object.")
		return res, nil
	}

	logger.Info(fmt.Sprintf("Compiling Metal shader to object: %s -> %s", layout.MSL(), layout.Object()))
	if err := c.tools.MetalObject(ctx, layout.MSL(), layout.Object()); err != nil {
		return nil, fmt.Errorf("%s stage %s: %w", s.Type, s.Path, err)
	}
	res.Object = layout.Object()
	return res, nil
}
