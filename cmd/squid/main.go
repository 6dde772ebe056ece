package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/errz"
)

var (
	commit = "unknown"
	date   = "unknown"
)

func buildInfo() buildinfo.Info {
	info := buildinfo.Default()
	info.Commit = commit
	info.Date = date
	return info
}

// app holds the configuration shared by all commands.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "squid [binary]",
		Short: "Run squid bytecode binaries",
		Long: `squid runs binaries (.sqd) produced by a squid compiler on a
stack-based virtual machine.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.configure,
		RunE:              a.runHandler,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default $HOME/.squid.yaml)")
	pf.String("log-level", "trace", "Minimum level of log messages")
	pf.Bool("dev", false, "Print developer messages")
	pf.Bool("no-color", false, "Disable colored output")
	addRunFlags(root)

	runCmd := &cobra.Command{
		Use:   "run [binary]",
		Short: "Run a binary",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runHandler,
	}
	addRunFlags(runCmd)

	disCmd := &cobra.Command{
		Use:   "dis <binary>",
		Short: "Disassemble a binary",
		Args:  cobra.ExactArgs(1),
		RunE:  a.disHandler,
	}
	disCmd.Flags().Bool("force-newer-bin", false, "Accept binaries built for a newer VM")
	disCmd.Flags().StringP("output", "o", "", "Output format (json or text)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE:  a.versionHandler,
	}
	versionCmd.Flags().StringP("output", "o", "", "Output format (json or text)")

	root.AddCommand(runCmd, disCmd, versionCmd)
	return root
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("bin", "b", "", "Path to the binary")
	f.String("sar", "", "Path to a squid archive")
	f.String("maxmem", "512MB", "Heap size (GB, MB, KB or B suffix)")
	f.Int("repo-size", 20, "Number of global variables")
	f.Int("stack-size", 2000, "Capacity of each data stack")
	f.Int("return-stack-size", 100, "Capacity of each return stack")
	f.Int("task-workers", runtime.GOMAXPROCS(0), "Tasks executing at once, 0 disables tasks")
	f.Bool("binver", false, "Print the binary's version details and exit")
	f.Bool("force-newer-bin", false, "Accept binaries built for a newer VM")
	f.Bool("trace", false, "Trace every instruction (requires --dev)")
}

// configure binds flags, environment variables and the config file to the
// command's viper instance.
func (a *app) configure(cmd *cobra.Command, args []string) error {
	v := a.v
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix("squid")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			v.SetConfigFile(filepath.Join(home, ".squid.yaml"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		explicit := v.GetString("config") != ""
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return errz.Wrap(errz.ErrConfig, err, "unable to read config")
		}
	}
	processGlobalFlags(v)
	return nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fatal(err)
	}
}
