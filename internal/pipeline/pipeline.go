package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/shadergrid/internal/ctxlog"
	"github.com/vk/shadergrid/internal/stage"
)

// ErrNoStages is returned when a run declares no stages.
var ErrNoStages = errors.New("at least one stage is required")

// Report summarises a successful run.
type Report struct {
	Stages []*Result
	// Objects lists the Metal objects in stage declaration order.
	Objects []string
	// Library is the linked Metal library, empty when none was linked.
	Library string
}

// Artifacts returns every file the run produced: each stage's translations
// and object, followed by the library.
func (r *Report) Artifacts() []string {
	var out []string
	for _, res := range r.Stages {
		out = append(out, res.Artifacts...)
		if res.Object != "" {
			out = append(out, res.Object)
		}
	}
	if r.Library != "" {
		out = append(out, r.Library)
	}
	return out
}

// Pipeline compiles stages one after another and links their Metal objects.
type Pipeline struct {
	compiler *Compiler
	tools    Tools
	metal    bool
}

// New creates a Pipeline. metal selects the Metal object and library steps.
func New(tools Tools, metal bool) *Pipeline {
	return &Pipeline{
		compiler: NewCompiler(tools, metal),
		tools:    tools,
		metal:    metal,
	}
}

// Run validates every stage up front, compiles them in order and, when the
// host builds Metal, links all objects into a single library.
func (p *Pipeline) Run(ctx context.Context, stages []stage.Stage) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	if len(stages) == 0 {
		return nil, ErrNoStages
	}

	// No directory is created and no tool is started until every stage
	// has an existing input and a known type.
	for _, s := range stages {
		if _, err := p.compiler.Validate(s); err != nil {
			return nil, err
		}
	}
	logger.Debug("All stages validated.", "count", len(stages), "metal", p.metal)

	report := &Report{}
	for _, s := range stages {
		res, err := p.compiler.Compile(ctx, s)
		if err != nil {
			return nil, err
		}
		report.Stages = append(report.Stages, res)
		if res.Object != "" {
			report.Objects = append(report.Objects, res.Object)
		}
	}

	if !p.metal || len(report.Objects) == 0 {
		logger.Debug("No Metal library to link.")
		return report, nil
	}

	last := report.Stages[len(report.Stages)-1].Layout
	library := last.Library()
	for _, res := range report.Stages[:len(report.Stages)-1] {
		if res.Layout.BaseDir != last.BaseDir {
			// TODO: decide whether each stage directory should get its own library.
			logger.Warn("Metal library is placed next to the last stage; objects from other stage directories are linked into it.",
				"library", library, "other_dir", res.Layout.BaseDir)
			break
		}
	}

	logger.Info("Linking Metal objects into metallib: "+library, "objects", len(report.Objects))
	if err := p.tools.MetalLibrary(ctx, report.Objects, library); err != nil {
		return nil, fmt.Errorf("linking %s: %w", library, err)
	}
	report.Library = library
	logger.Info("Metal library created: " + library)

	return report, nil
}
