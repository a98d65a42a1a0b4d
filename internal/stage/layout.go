package stage

import (
	"path/filepath"
	"strings"
)

// Backend output subdirectory names, created under every stage's base
// output directory.
const (
	DirSPIRV = "spv"
	DirDXBC  = "dxbc"
	DirGLSL  = "glsl"
	DirMSL   = "msl"
)

// LibraryName is the file name of the linked Metal library.
const LibraryName = "shaders.metallib"

// Layout is the deterministic output tree of a stage. For an input
// `shaders/basic.hlsl` of type vertex the SPIR-V artifact is
// `shaders/basic/spv/basic.vertex.spv`.
type Layout struct {
	BaseDir  string
	Basename string
	Type     Type
}

// NewLayout derives the output layout from the stage's input path.
func NewLayout(s Stage) Layout {
	return Layout{
		BaseDir:  trimExt(s.Path),
		Basename: trimExt(filepath.Base(s.Path)),
		Type:     s.Type,
	}
}

// Dirs returns the backend subdirectories in creation order.
func (l Layout) Dirs() []string {
	return []string{
		filepath.Join(l.BaseDir, DirSPIRV),
		filepath.Join(l.BaseDir, DirDXBC),
		filepath.Join(l.BaseDir, DirGLSL),
		filepath.Join(l.BaseDir, DirMSL),
	}
}

func (l Layout) SPIRV() string { return l.artifact(DirSPIRV, "spv") }
func (l Layout) DXBC() string  { return l.artifact(DirDXBC, "dxbc") }
func (l Layout) GLSL() string  { return l.artifact(DirGLSL, "glsl") }
func (l Layout) MSL() string   { return l.artifact(DirMSL, "metal") }

// Object is the compiled Metal intermediate (.air) for the stage.
func (l Layout) Object() string { return l.artifact(DirMSL, "air") }

// Library is where a Metal library linked next to this stage is written.
func (l Layout) Library() string {
	return filepath.Join(l.BaseDir, DirMSL, LibraryName)
}

func (l Layout) artifact(dir, ext string) string {
	return filepath.Join(l.BaseDir, dir, l.Basename+"."+string(l.Type)+"."+ext)
}

// trimExt removes the final extension from path. Leading dots of the last
// element do not start an extension, so ".hlsl" is kept whole.
func trimExt(path string) string {
	base := filepath.Base(path)
	stripped := strings.TrimLeft(base, ".")
	i := strings.LastIndex(stripped, ".")
	if i < 0 {
		return path
	}
	return path[:len(path)-(len(stripped)-i)]
}
