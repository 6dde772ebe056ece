package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeBinary(t *testing.T) string {
	t.Helper()
	program := bytecode.NewProgram(
		bytecode.IWith(op.PushData, immediate.NewInt(10)),
		bytecode.IWith(op.PushData, immediate.NewInt(12)),
		bytecode.I(op.IAdd),
		bytecode.I(op.PrintTop),
		bytecode.I(op.Halt),
	)
	data, err := bytecode.Encode(program, &bytecode.Header{
		Version:  buildinfo.Default().Version,
		Compiler: "squidc test",
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sum.sqd")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	path := writeBinary(t)
	stdout, _, err := execute(t, "run", path)
	require.NoError(t, err)
	require.Equal(t, "22", stdout)

	stdout, _, err = execute(t, "--bin", path)
	require.NoError(t, err)
	require.Equal(t, "22", stdout)
}

func TestRunCommandErrors(t *testing.T) {
	path := writeBinary(t)
	tests := []struct {
		name string
		args []string
		code errz.ExitCode
	}{
		{"missing binary", []string{"run"}, errz.ArgMissing},
		{"two binaries", []string{"run", path, "--bin", path}, errz.ArgMissing},
		{"archive", []string{"--sar", "bundle.sar"}, errz.Feature},
		{"bad maxmem", []string{"run", path, "--maxmem", "12"}, errz.MaxMemConversion},
		{"huge maxmem", []string{"run", path, "--maxmem", "8589934592GB"}, errz.MaxMemConversion},
		{"bad log level", []string{"run", path, "--log-level", "loud"}, errz.PrintThread},
		{"missing file", []string{"run", filepath.Join(t.TempDir(), "nope")}, errz.FileData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			require.Equal(t, tt.code, errz.ExitCodeOf(err))
		})
	}
}

func TestStackFailureExitCode(t *testing.T) {
	data, err := bytecode.Encode(bytecode.NewProgram(bytecode.I(op.PopData), bytecode.I(op.Halt)), nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pop.sqd")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	stdout, _, err := execute(t, "run", path)
	require.Error(t, err)
	require.Equal(t, errz.StackUnderflow, errz.ExitCodeOf(err))
	require.Contains(t, stdout, "File doesn't include metadata!")
}

func TestBinver(t *testing.T) {
	stdout, _, err := execute(t, "run", writeBinary(t), "--binver")
	require.NoError(t, err)
	require.Contains(t, stdout, "Compiled with: squidc test")
	require.NotContains(t, stdout, "22")
}

func TestEnvironmentConfig(t *testing.T) {
	t.Setenv("SQUID_MAXMEM", "lots")
	_, _, err := execute(t, "run", writeBinary(t))
	require.Equal(t, errz.MaxMemConversion, errz.ExitCodeOf(err))
}

func TestConfigFile(t *testing.T) {
	config := filepath.Join(t.TempDir(), "squid.yaml")
	require.NoError(t, os.WriteFile(config, []byte("stack-size: 1\n"), 0o644))
	_, _, err := execute(t, "run", writeBinary(t), "--config", config)
	require.Equal(t, errz.StackOverflow, errz.ExitCodeOf(err))

	_, _, err = execute(t, "run", writeBinary(t), "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, errz.IsKind(err, errz.ErrConfig))
}

func TestDisCommand(t *testing.T) {
	path := writeBinary(t)
	stdout, _, err := execute(t, "dis", path)
	require.NoError(t, err)
	require.Contains(t, stdout, "OPCODE")
	require.Contains(t, stdout, "I_ADD")

	stdout, _, err = execute(t, "dis", path, "-o", "json")
	require.NoError(t, err)
	var listing []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &listing))
	require.Len(t, listing, 5)
	require.Equal(t, "PDTS", listing[0]["opcode"])
	require.Equal(t, float64(10), listing[0]["operand"])

	_, _, err = execute(t, "dis", path, "-o", "yaml")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "squid "+buildinfo.Default().Version.String())

	stdout, _, err = execute(t, "version", "-o", "json")
	require.NoError(t, err)
	var info buildinfo.Info
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	require.Equal(t, buildinfo.Default().Version, info.Version)
	require.Equal(t, "unknown", info.Commit)
}
