package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/shadergrid/internal/app"
	"github.com/vk/shadergrid/internal/notify"
	"github.com/vk/shadergrid/internal/platform"
	"github.com/vk/shadergrid/internal/stage"
	"github.com/vk/shadergrid/internal/toolchain"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Every stage declaration is parsed before the config is returned, so a
// malformed one fails before any tool is started.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("shadergrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
shadergrid - Cross-compile HLSL shader stages to SPIR-V, DXBC, GLSL and MSL.

Usage:
  shadergrid --stage type=<vertex|pixel> path="<file.hlsl>" fun=<EntryPoint> [--stage ...] [options]
  shadergrid --manifest <file.hcl|dir> [--stage ...] [options]

Outputs for <dir>/<name>.hlsl are written to <dir>/<name>/{spv,dxbc,glsl,msl}/.
On macOS every stage is also compiled to a Metal object and all objects are
linked into msl/shaders.metallib next to the last stage.

Options:
`)
		flagSet.PrintDefaults()
	}

	// --stage groups are extracted before flag parsing; this definition
	// only documents the flag.
	flagSet.Func("stage", "Stage declaration: type=<vertex|pixel> path=\"<file>\" fun=<EntryPoint>. Repeatable.", func(string) error {
		return errors.New("stage groups must be extracted before flag parsing")
	})
	manifestFlag := flagSet.String("manifest", "", "Path to an HCL pipeline manifest file or a directory of .hcl manifests.")
	platformFlag := flagSet.String("platform", "auto", "Target host: 'auto', 'darwin', 'linux' or 'windows'. Metal objects are only built for darwin.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the tool commands instead of running them.")
	dxcFlag := flagSet.String("dxc", "", "DirectX shader compiler executable (default \"dxc\").")
	spirvCrossFlag := flagSet.String("spirv-cross", "", "SPIRV-Cross executable (default \"spirv-cross\").")
	xcrunFlag := flagSet.String("xcrun", "", "xcrun executable used for the Metal tools (default \"xcrun\").")
	metalSDKFlag := flagSet.String("metal-sdk", "", "SDK passed to xcrun -sdk (default \"macosx\").")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	notifyURLFlag := flagSet.String("notify-url", "", "socket.io server to notify after a successful build. Empty disables notification.")
	notifyNamespaceFlag := flagSet.String("notify-namespace", "/", "socket.io namespace for the build notification.")
	notifyEventFlag := flagSet.String("notify-event", notify.DefaultEvent, "Event name emitted after a successful build.")
	notifyAckFlag := flagSet.String("notify-ack-event", "", "Event to wait for from the server after notifying. Empty does not wait.")
	notifyTimeoutFlag := flagSet.Duration("notify-timeout", notify.DefaultTimeout, "Timeout for the whole build notification.")
	notifyInsecureFlag := flagSet.Bool("notify-insecure", false, "Skip TLS certificate verification for the notification server.")

	rest, groups, err := splitStageGroups(args)
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	if err := flagSet.Parse(rest); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, usageError("%v", err)
	}
	slog.Debug("Arguments parsed successfully.", "stage_groups", len(groups))

	if flagSet.NArg() > 0 {
		return nil, false, usageError("unexpected argument %q: stage tokens must follow --stage", flagSet.Arg(0))
	}

	stages := make([]stage.Stage, 0, len(groups))
	for i, group := range groups {
		s, err := stage.ParseTokens(group)
		if err != nil {
			return nil, false, usageError("--stage #%d: %v", i+1, err)
		}
		stages = append(stages, s)
	}

	if len(stages) == 0 && *manifestFlag == "" {
		flagSet.Usage()
		return nil, false, usageError("at least one --stage (or a --manifest) is required")
	}

	host, err := platform.Parse(*platformFlag)
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	config, err := app.NewConfig(app.Config{
		Stages:       stages,
		ManifestPath: *manifestFlag,
		Platform:     host,
		Tools: toolchain.Tools{
			DXC:        *dxcFlag,
			SPIRVCross: *spirvCrossFlag,
			Xcrun:      *xcrunFlag,
			MetalSDK:   *metalSDKFlag,
		},
		DryRun:    *dryRunFlag,
		LogFormat: strings.ToLower(*logFormatFlag),
		LogLevel:  strings.ToLower(*logLevelFlag),
		Notify: notify.Config{
			URL:                *notifyURLFlag,
			Namespace:          *notifyNamespaceFlag,
			Event:              *notifyEventFlag,
			AckEvent:           *notifyAckFlag,
			Timeout:            *notifyTimeoutFlag,
			InsecureSkipVerify: *notifyInsecureFlag,
		},
	})
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	slog.Debug("CLI parser finished successfully.", "stages", len(stages), "platform", host.String())
	return config, false, nil
}

// splitStageGroups removes every --stage occurrence and the key=value
// tokens following it from args. A group runs until the next argument that
// starts with "-". `--stage=type=vertex ...` is accepted as well.
func splitStageGroups(args []string) (rest []string, groups [][]string, err error) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") {
			rest = append(rest, arg)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name != "stage" {
			rest = append(rest, arg)
			continue
		}

		var group []string
		if hasValue {
			group = append(group, value)
		}
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			group = append(group, args[i])
		}
		if len(group) == 0 {
			return nil, nil, errors.New("flag --stage needs at least one key=value token")
		}
		groups = append(groups, group)
	}
	return rest, groups, nil
}
