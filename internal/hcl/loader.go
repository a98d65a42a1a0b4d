package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/shadergrid/internal/config"
	"github.com/vk/shadergrid/internal/ctxlog"
	"github.com/vk/shadergrid/internal/fsutil"
	"github.com/vk/shadergrid/internal/stage"
	"github.com/vk/shadergrid/internal/toolchain"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot lists every top-level block a manifest may contain. Anything else
// is rejected by the decoder.
type fileRoot struct {
	Toolchain *toolchainBlock `hcl:"toolchain,block"`
	Stages    []*stageBlock   `hcl:"stage,block"`
}

type toolchainBlock struct {
	DXC        string `hcl:"dxc,optional"`
	SPIRVCross string `hcl:"spirv_cross,optional"`
	Xcrun      string `hcl:"xcrun,optional"`
	MetalSDK   string `hcl:"metal_sdk,optional"`
}

// stageBlock keeps the body raw so its attributes go through the same
// validation as a --stage argument group.
type stageBlock struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load implements config.Loader. A path may be a single manifest file (any
// extension) or a directory, which is searched recursively for .hcl files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()
	parser := hclparse.NewParser()

	for _, path := range paths {
		files, err := l.findManifests(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			logger.Warn("No .hcl manifest files found in path", "path", path)
			continue
		}

		for _, file := range files {
			if err := l.loadFile(ctx, parser, file, model); err != nil {
				return nil, err
			}
			model.Files = append(model.Files, file)
		}
	}

	logger.Debug("HCL loading complete.", "files", len(model.Files), "stages", len(model.Stages))
	return model, nil
}

func (l *Loader) findManifests(path string) ([]string, error) {
	if fsutil.IsRegularFile(path) {
		return []string{path}, nil
	}
	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("error accessing manifest path %s: %w", path, err)
	}
	return files, nil
}

func (l *Loader) loadFile(ctx context.Context, parser *hclparse.Parser, file string, model *config.Model) error {
	logger := ctxlog.FromContext(ctx).With("manifest", file)

	hclFile, diags := parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}

	if root.Toolchain != nil {
		model.Toolchain = model.Toolchain.Merge(toolchain.Tools{
			DXC:        root.Toolchain.DXC,
			SPIRVCross: root.Toolchain.SPIRVCross,
			Xcrun:      root.Toolchain.Xcrun,
			MetalSDK:   root.Toolchain.MetalSDK,
		})
		logger.Debug("Toolchain overrides applied.", "toolchain", model.Toolchain)
	}

	dir := filepath.Dir(file)
	for _, block := range root.Stages {
		s, err := l.translateStage(block)
		if err != nil {
			return fmt.Errorf("in %s: %w", file, err)
		}
		if !filepath.IsAbs(s.Path) {
			s.Path = filepath.Join(dir, s.Path)
		}
		model.Stages = append(model.Stages, s)
		logger.Debug("Stage declared.", "stage", s.String())
	}
	return nil
}

// translateStage evaluates a stage block's attributes and validates them
// like a command-line stage declaration. The stage type comes from the
// block label.
func (l *Loader) translateStage(block *stageBlock) (stage.Stage, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return stage.Stage{}, fmt.Errorf("stage %q: %w", block.Type, diags)
	}

	values := make(map[string]cty.Value, len(attrs)+1)
	for name, attr := range attrs {
		if name == "type" {
			return stage.Stage{}, fmt.Errorf("stage %q: the stage type is given by the block label, not a type attribute", block.Type)
		}
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return stage.Stage{}, fmt.Errorf("stage %q, attribute %q: %w", block.Type, name, diags)
		}
		values[name] = val
	}
	values["type"] = cty.StringVal(block.Type)

	s, err := stage.FromValues(values)
	if err != nil {
		return stage.Stage{}, fmt.Errorf("stage %q: %w", block.Type, err)
	}
	return s, nil
}
