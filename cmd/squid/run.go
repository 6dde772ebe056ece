package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/squidvm/squid"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/dis"
	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/internal/size"
	"github.com/squidvm/squid/output"
	"github.com/squidvm/squid/vm"
)

// binaryPath returns the binary named by --bin or the positional argument.
func (a *app) binaryPath(args []string) (string, error) {
	path := a.v.GetString("bin")
	if len(args) > 0 {
		if path != "" {
			return "", errz.New(errz.ErrConfig, "multiple binaries specified").WithCode(errz.ArgMissing)
		}
		path = args[0]
	}
	if path == "" {
		return "", errz.New(errz.ErrConfig, "No binary provided").WithCode(errz.ArgMissing)
	}
	return path, nil
}

func (a *app) outputConfig() output.Config {
	return output.Config{
		Stdout:  a.stdout,
		Stderr:  a.stderr,
		Level:   a.v.GetString("log-level"),
		Dev:     a.v.GetBool("dev"),
		NoColor: a.v.GetBool("no-color") || !isTerminal(a.stderr),
	}
}

// squidOptions builds the load and run options from the configuration.
func (a *app) squidOptions() ([]squid.Option, error) {
	heapSize, err := size.Parse(a.v.GetString("maxmem"))
	if err != nil {
		return nil, err
	}
	return []squid.Option{
		squid.WithBuildInfo(buildInfo()),
		squid.WithForceNewer(a.v.GetBool("force-newer-bin")),
		squid.WithOutputConfig(a.outputConfig()),
		squid.WithTrace(a.v.GetBool("trace")),
		squid.WithVMOptions(
			vm.WithHeapSize(heapSize),
			vm.WithRepositorySize(a.v.GetInt("repo-size")),
			vm.WithStackSize(a.v.GetInt("stack-size")),
			vm.WithReturnStackSize(a.v.GetInt("return-stack-size")),
			vm.WithTaskWorkers(a.v.GetInt("task-workers")),
		),
	}, nil
}

func (a *app) runHandler(cmd *cobra.Command, args []string) error {
	if a.v.GetString("sar") != "" {
		return errz.New(errz.ErrFeature, "Reading squid archives is not supported")
	}
	path, err := a.binaryPath(args)
	if err != nil {
		return err
	}
	opts, err := a.squidOptions()
	if err != nil {
		return err
	}

	if a.v.GetBool("binver") {
		_, err := squid.Load(path, append(opts, squid.WithVersionOnly(true))...)
		if errors.Is(err, bytecode.ErrVersionOnly) {
			return nil
		}
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	result, err := squid.RunFile(ctx, path, opts...)
	if err != nil {
		return err
	}
	if a.v.GetBool("dev") {
		fmt.Fprintln(a.stderr, faint("Heap: "+result.Heap.String()))
	}
	return nil
}

func (a *app) disHandler(cmd *cobra.Command, args []string) error {
	program, err := squid.Load(args[0],
		squid.WithBuildInfo(buildInfo()),
		squid.WithForceNewer(a.v.GetBool("force-newer-bin")),
		squid.WithOutputConfig(a.outputConfig()))
	if err != nil {
		return err
	}
	instructions := dis.Disassemble(program)
	switch strings.ToLower(a.v.GetString("output")) {
	case "", "text":
		dis.Print(instructions, a.stdout)
		return nil
	case "json":
		data, err := a.outputJSON(instructions)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", a.v.GetString("output"))
	}
}

func (a *app) versionHandler(cmd *cobra.Command, args []string) error {
	info := buildInfo()
	switch strings.ToLower(a.v.GetString("output")) {
	case "", "text":
		fmt.Fprintf(a.stdout, "squid %s (%s)\n", info.Version, info.Target)
		return nil
	case "json":
		data, err := a.outputJSON(info)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", a.v.GetString("output"))
	}
}
