package vm

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
	"github.com/squidvm/squid/output"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	config ObserverConfig
	events []StepEvent
	haltAt int
}

func newRecordingObserver(mode StepMode) *recordingObserver {
	return &recordingObserver{config: NewObserverConfig(mode), haltAt: -1}
}

func (r *recordingObserver) Config() ObserverConfig { return r.config }

func (r *recordingObserver) OnStep(e StepEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return e.PC != r.haltAt
}

func sumProgram() *bytecode.Program {
	return bytecode.NewProgram(
		bytecode.IWith(op.PushData, immediate.NewInt(1)),
		bytecode.IWith(op.PushData, immediate.NewInt(2)),
		bytecode.I(op.IAdd),
		bytecode.I(op.Halt),
	)
}

func TestObserverStepAll(t *testing.T) {
	obs := newRecordingObserver(StepAll)
	h := newHarness(t, WithObserver(obs))
	require.NoError(t, h.m.Execute(context.Background(), sumProgram()))
	require.NoError(t, h.close())

	require.Len(t, obs.events, 4)
	var names []string
	var depths []int
	for i, e := range obs.events {
		require.Equal(t, i, e.PC)
		require.Equal(t, "Main thread", e.Unit)
		require.Equal(t, MainUnit, e.Kind)
		names = append(names, e.OpcodeName)
		depths = append(depths, e.StackDepth)
	}
	require.Equal(t, []string{"PDTS", "PDTS", "I_ADD", "HALT"}, names)
	require.Equal(t, []int{0, 1, 2, 1}, depths)
}

func TestObserverModes(t *testing.T) {
	sampled := newRecordingObserver(StepSampled)
	sampled.config.SampleInterval = 2
	h := newHarness(t, WithObserver(sampled))
	require.NoError(t, h.m.Execute(context.Background(), sumProgram()))
	require.NoError(t, h.close())
	require.Len(t, sampled.events, 2)
	require.Equal(t, 1, sampled.events[0].PC)
	require.Equal(t, 3, sampled.events[1].PC)

	none := newRecordingObserver(StepNone)
	h = newHarness(t, WithObserver(none))
	require.NoError(t, h.m.Execute(context.Background(), sumProgram()))
	require.NoError(t, h.close())
	require.Empty(t, none.events)
}

func TestObserverHalts(t *testing.T) {
	obs := newRecordingObserver(StepAll)
	obs.haltAt = 2
	h := newHarness(t, WithObserver(obs))
	err := h.m.Execute(context.Background(), sumProgram())
	require.ErrorIs(t, err, ErrHalted)
	require.False(t, h.m.Running())
	require.Len(t, h.m.Stack(), 2)
	require.NoError(t, h.close())
}

func TestObserverSeesSpawnedUnits(t *testing.T) {
	obs := newRecordingObserver(StepAll)
	h := newHarness(t, WithObserver(obs))
	require.NoError(t, h.m.Execute(context.Background(), bytecode.NewProgram(
		bytecode.IWith(op.NewThread, immediate.True),
		bytecode.I(op.Halt),
	)))
	require.NoError(t, h.close())

	units := map[string]int{}
	for _, e := range obs.events {
		units[e.Unit]++
	}
	require.Equal(t, 2, units["Main thread"])
	require.Equal(t, DemoProgram().Len(), units["Thread 0"])
}

func TestNormalizeConfig(t *testing.T) {
	cfg := NormalizeConfig(ObserverConfig{StepMode: StepSampled, SampleInterval: 0})
	require.Equal(t, 1, cfg.SampleInterval)
	cfg = NormalizeConfig(ObserverConfig{StepMode: StepAll, SampleInterval: -3})
	require.Equal(t, -3, cfg.SampleInterval)
}

func TestTraceObserver(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out, err := output.Start(output.Config{Stdout: &stdout, Stderr: &stderr, Dev: true, NoColor: true})
	require.NoError(t, err)
	m, err := New(WithOutput(out), WithObserver(NewTraceObserver(out)))
	require.NoError(t, err)
	require.NoError(t, m.Execute(context.Background(), sumProgram()))
	require.NoError(t, m.Close())
	out.Close()

	require.Contains(t, stderr.String(), "Main thread PC: 0 PDTS, stack depth 0")
	require.Contains(t, stderr.String(), "Main thread PC: 2 I_ADD, stack depth 2")
	require.Contains(t, stderr.String(), "Exiting...")
}
