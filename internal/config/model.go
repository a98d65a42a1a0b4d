package config

import (
	"github.com/vk/shadergrid/internal/stage"
	"github.com/vk/shadergrid/internal/toolchain"
)

// Model is the merged content of all loaded manifests.
type Model struct {
	// Toolchain holds tool overrides. Empty fields keep the defaults.
	Toolchain toolchain.Tools
	// Stages are in file order, then declaration order within a file.
	// Relative paths are already resolved against the declaring file.
	Stages []stage.Stage
	// Files lists the manifest files that were read.
	Files []string
}

// NewModel returns an empty Model.
func NewModel() *Model {
	return &Model{Stages: []stage.Stage{}}
}
