package toolchain_test

import (
	"bytes"
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/shadergrid/internal/testutil"
	"github.com/vk/shadergrid/internal/toolchain"
)

func TestToolchain_ArgumentVectors(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	runner := &testutil.FakeRunner{}
	tc := toolchain.New(toolchain.Tools{}, runner)

	src := "basic.hlsl"
	spv := filepath.Join(dir, "basic.vertex.spv")
	dxbc := filepath.Join(dir, "basic.vertex.dxbc")
	glsl := filepath.Join(dir, "basic.vertex.glsl")
	msl := filepath.Join(dir, "basic.vertex.metal")
	air := filepath.Join(dir, "basic.vertex.air")
	lib := filepath.Join(dir, "shaders.metallib")

	// --- Act ---
	require.NoError(t, tc.HLSLToSPIRV(ctx, src, "VSMain", "vs_6_0", spv))
	require.NoError(t, tc.HLSLToDXBC(ctx, src, "VSMain", "vs_6_0", dxbc))
	require.NoError(t, tc.SPIRVToGLSL(ctx, spv, glsl))
	require.NoError(t, tc.SPIRVToMSL(ctx, spv, msl))
	require.NoError(t, tc.MetalObject(ctx, msl, air))
	require.NoError(t, tc.MetalLibrary(ctx, []string{air, "other.air"}, lib))

	// --- Assert ---
	expected := [][]string{
		{"dxc", "-T", "vs_6_0", "-E", "VSMain", "-Fo", spv, src, "-spirv", "-fspv-target-env=vulkan1.3"},
		{"dxc", "-T", "vs_6_0", "-E", "VSMain", "-Fo", dxbc, src},
		{"spirv-cross", spv, "--version", "460", "--output", glsl},
		{"spirv-cross", spv, "--msl", "--msl-version", "20100", "--msl-argument-buffers", "--msl-pad-fragment-output", "--output", msl},
		{"xcrun", "-sdk", "macosx", "metal", "-c", msl, "-o", air},
		{"xcrun", "-sdk", "macosx", "metallib", air, "other.air", "-o", lib},
	}
	var got [][]string
	for _, c := range runner.Calls() {
		got = append(got, c.Argv())
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("argument vectors mismatch (-want +got):\n%s", diff)
	}
}

func TestToolchain_CustomTools(t *testing.T) {
	t.Parallel()

	ctx, _ := testutil.Context(t)
	runner := &testutil.FakeRunner{}
	tc := toolchain.New(toolchain.Tools{DXC: "/opt/dxc/bin/dxc", MetalSDK: "iphoneos"}, runner)

	require.Equal(t, toolchain.Tools{
		DXC:        "/opt/dxc/bin/dxc",
		SPIRVCross: "spirv-cross",
		Xcrun:      "xcrun",
		MetalSDK:   "iphoneos",
	}, tc.Tools())

	require.NoError(t, tc.HLSLToDXBC(ctx, "a.hlsl", "Main", "ps_6_0", ""))
	require.NoError(t, tc.MetalLibrary(ctx, nil, ""))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "/opt/dxc/bin/dxc", calls[0].Name)
	require.Equal(t, []string{"-sdk", "iphoneos", "metallib", "-o", ""}, calls[1].Args)
}

func TestTools_Merge(t *testing.T) {
	t.Parallel()

	base := toolchain.DefaultTools()
	merged := base.Merge(toolchain.Tools{SPIRVCross: "/usr/local/bin/spirv-cross"})

	require.Equal(t, "dxc", merged.DXC)
	require.Equal(t, "/usr/local/bin/spirv-cross", merged.SPIRVCross)
	require.Equal(t, "spirv-cross", base.SPIRVCross, "Merge must not modify the receiver")
}

func TestCommandLine(t *testing.T) {
	t.Parallel()

	require.Equal(t, "dxc -T vs_6_0", toolchain.CommandLine("dxc", []string{"-T", "vs_6_0"}))
	require.Equal(t, `spirv-cross "my shader.spv" ""`, toolchain.CommandLine("spirv-cross", []string{"my shader.spv", ""}))
}

func TestDryRunner_PrintsCommands(t *testing.T) {
	t.Parallel()

	ctx, _ := testutil.Context(t)
	out := &bytes.Buffer{}
	tc := toolchain.New(toolchain.Tools{}, &toolchain.DryRunner{Out: out})

	require.NoError(t, tc.SPIRVToGLSL(ctx, "a.spv", "a.glsl"))

	require.Equal(t, "spirv-cross a.spv --version 460 --output a.glsl\n", out.String())
}

func TestExecRunner(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}

	t.Run("Success streams output", func(t *testing.T) {
		t.Parallel()

		ctx, logs := testutil.Context(t)
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		r := toolchain.NewExecRunner(stdout, stderr)

		err := r.Run(ctx, "sh", "-c", "echo out; echo err 1>&2")

		require.NoError(t, err)
		require.Equal(t, "out\n", stdout.String())
		require.Equal(t, "err\n", stderr.String())
		require.Contains(t, logs.String(), "Running: sh -c")
	})

	t.Run("Non-zero exit is a CommandError", func(t *testing.T) {
		t.Parallel()

		ctx, _ := testutil.Context(t)
		r := toolchain.NewExecRunner(&bytes.Buffer{}, &bytes.Buffer{})

		err := r.Run(ctx, "sh", "-c", "exit 3")

		var cmdErr *toolchain.CommandError
		require.True(t, errors.As(err, &cmdErr))
		require.Equal(t, 3, cmdErr.ExitCode())
		require.Contains(t, err.Error(), "failed to run sh -c")
	})

	t.Run("Missing binary is a CommandError", func(t *testing.T) {
		t.Parallel()

		ctx, _ := testutil.Context(t)
		r := toolchain.NewExecRunner(&bytes.Buffer{}, &bytes.Buffer{})

		err := r.Run(ctx, "shadergrid-no-such-tool")

		var cmdErr *toolchain.CommandError
		require.True(t, errors.As(err, &cmdErr))
		require.Equal(t, -1, cmdErr.ExitCode())
	})
}
