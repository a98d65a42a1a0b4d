package app

import (
	"context"
	"fmt"

	"github.com/vk/shadergrid/internal/ctxlog"
	"github.com/vk/shadergrid/internal/notify"
	"github.com/vk/shadergrid/internal/pipeline"
	"github.com/vk/shadergrid/internal/stage"
	"github.com/vk/shadergrid/internal/toolchain"
)

// Run loads the manifest if one is configured, runs every stage and, when
// configured, announces the finished build.
func (a *App) Run(ctx context.Context) (*pipeline.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	stages, tools, err := a.resolve(ctx)
	if err != nil {
		return nil, err
	}

	metal := a.config.Platform.MetalCapable()
	a.logger.Info("🚀 Starting shader pipeline",
		"stages", len(stages),
		"platform", a.config.Platform.String(),
		"metal", metal,
		"dry_run", a.config.DryRun,
	)

	p := pipeline.New(toolchain.New(tools, a.runner), metal)
	report, err := p.Run(ctx, stages)
	if err != nil {
		return nil, err
	}
	a.logger.Info("🏁 Shader pipeline finished.", "artifacts", len(report.Artifacts()))

	if a.config.Notify.Enabled() && !a.config.DryRun {
		if err := notify.New(a.config.Notify).Notify(ctx, notify.NewPayload(report)); err != nil {
			// The build itself succeeded, so a missed notification is not fatal.
			a.logger.Warn("Build notification failed", "error", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return report, nil
}

// resolve merges manifest stages (first) with command-line stages and
// manifest tool settings with command-line overrides.
func (a *App) resolve(ctx context.Context) ([]stage.Stage, toolchain.Tools, error) {
	stages := a.config.Stages
	tools := a.config.Tools

	if a.config.ManifestPath == "" {
		return stages, tools, nil
	}

	model, err := a.loader.Load(ctx, a.config.ManifestPath)
	if err != nil {
		return nil, toolchain.Tools{}, fmt.Errorf("failed to load manifest: %w", err)
	}
	a.logger.Debug("Manifest loaded.", "files", model.Files, "stages", len(model.Stages))

	merged := make([]stage.Stage, 0, len(model.Stages)+len(stages))
	merged = append(merged, model.Stages...)
	merged = append(merged, stages...)
	return merged, model.Toolchain.Merge(tools), nil
}
