package squid

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
	"github.com/squidvm/squid/output"
	"github.com/squidvm/squid/stack"
	"github.com/squidvm/squid/vm"
	"github.com/stretchr/testify/require"
)

func writeBinary(t *testing.T, version buildinfo.Version, instrs ...bytecode.Instruction) string {
	t.Helper()
	data, err := bytecode.Encode(bytecode.NewProgram(instrs...), &bytecode.Header{
		Version:  version,
		Compiler: "squidc test",
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "prog.sqd")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testConfig() (output.Config, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return output.Config{Stdout: &stdout, Stderr: &stderr, NoColor: true}, &stdout, &stderr
}

func TestRunFile(t *testing.T) {
	path := writeBinary(t, buildinfo.Default().Version,
		bytecode.IWith(op.PushData, immediate.NewInt(10)),
		bytecode.IWith(op.PushData, immediate.NewInt(12)),
		bytecode.I(op.IAdd),
		bytecode.IWith(op.PushData, immediate.Nil),
		bytecode.I(op.PrintTop),
		bytecode.I(op.Halt),
	)
	cfg, stdout, _ := testConfig()
	result, err := RunFile(context.Background(), path, WithOutputConfig(cfg))
	require.NoError(t, err)
	require.Nil(t, result.Panicked)
	require.Empty(t, result.Units)
	require.Equal(t, "22", stdout.String())
}

func TestRunFileWithoutExtension(t *testing.T) {
	path := writeBinary(t, buildinfo.Default().Version,
		bytecode.IWith(op.PrintData, immediate.NewMutStr("ok")),
		bytecode.I(op.Halt),
	)
	cfg, stdout, _ := testConfig()
	_, err := RunFile(context.Background(), path[:len(path)-len(bytecode.Extension)], WithOutputConfig(cfg))
	require.NoError(t, err)
	require.Equal(t, "ok", stdout.String())
}

func TestRunFileRejectsNewerBinary(t *testing.T) {
	newer := buildinfo.Default().Version
	newer.Major++
	path := writeBinary(t, newer, bytecode.IWith(op.PrintData, immediate.NewMutStr("ok")), bytecode.I(op.Halt))

	cfg, stdout, _ := testConfig()
	_, err := RunFile(context.Background(), path, WithOutputConfig(cfg))
	require.Error(t, err)
	require.Equal(t, errz.FileData, errz.ExitCodeOf(err))

	cfg, stdout, _ = testConfig()
	_, err = RunFile(context.Background(), path, WithOutputConfig(cfg), WithForceNewer(true))
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "ok")
}

func TestLoadVersionOnly(t *testing.T) {
	path := writeBinary(t, buildinfo.Default().Version, bytecode.I(op.Halt))
	cfg, stdout, _ := testConfig()
	_, err := Load(path, WithOutputConfig(cfg), WithVersionOnly(true))
	require.ErrorIs(t, err, bytecode.ErrVersionOnly)
	require.Contains(t, stdout.String(), "Compiled with: squidc test")
}

func TestRunSpawnedUnits(t *testing.T) {
	cfg, stdout, _ := testConfig()
	program := bytecode.NewProgram(
		bytecode.IWith(op.NewThread, immediate.True),
		bytecode.IWith(op.NewTask, immediate.True),
		bytecode.I(op.Halt),
	)
	result, err := Run(context.Background(), program, WithOutputConfig(cfg))
	require.NoError(t, err)
	require.Len(t, result.Units, 2)
	require.Equal(t, vm.ThreadUnit, result.Units[0].Kind)
	require.Equal(t, vm.TaskUnit, result.Units[1].Kind)
	require.Equal(t, 1, result.Heap.Regions)
	require.Equal(t, "22222222", stdout.String())
}

func TestRunReportsUnitFailures(t *testing.T) {
	cfg, _, stderr := testConfig()
	spawned := bytecode.NewProgram(bytecode.I(op.Panic))
	program := bytecode.NewProgram(bytecode.IWith(op.NewThread, immediate.True), bytecode.I(op.Halt))
	result, err := Run(context.Background(), program,
		WithOutputConfig(cfg),
		WithVMOptions(vm.WithSpawnProgram(spawned)))
	require.ErrorIs(t, err, vm.ErrPanic)
	require.Nil(t, result.Panicked)
	require.Contains(t, stderr.String(), "Thread 0 error")
}

func TestRunFatalStackError(t *testing.T) {
	cfg, _, _ := testConfig()
	program := bytecode.NewProgram(bytecode.I(op.PopData), bytecode.I(op.Halt))
	_, err := Run(context.Background(), program, WithOutputConfig(cfg))
	require.ErrorIs(t, err, stack.ErrUnderflow)
	require.Equal(t, errz.StackUnderflow, errz.ExitCodeOf(err))
}

func TestRunMainPanic(t *testing.T) {
	cfg, _, stderr := testConfig()
	program := bytecode.NewProgram(
		bytecode.IWith(op.PushData, immediate.True),
		bytecode.IWith(op.PushData, immediate.True),
		bytecode.I(op.FAdd),
	)
	result, err := Run(context.Background(), program, WithOutputConfig(cfg))
	require.NoError(t, err)
	require.ErrorIs(t, result.Panicked, vm.ErrNoFloats)
	require.Contains(t, stderr.String(), "Main thread panicked")
}

func TestRunTrace(t *testing.T) {
	cfg, _, stderr := testConfig()
	cfg.Dev = true
	program := bytecode.NewProgram(bytecode.I(op.Halt))
	_, err := Run(context.Background(), program, WithOutputConfig(cfg), WithTrace(true))
	require.NoError(t, err)
	require.Contains(t, stderr.String(), "Main thread PC: 0 HALT")
}
