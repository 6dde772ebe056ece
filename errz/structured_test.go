package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrFormat, "unknown operand tag 0x%02X", 0x09)
	require.Equal(t, "format error: unknown operand tag 0x09", err.Error())
	require.Equal(t, FileData, err.ExitCode())

	wrapped := Wrap(ErrIO, errors.New("eof"), "truncated body")
	require.Equal(t, "io error: truncated body: eof", wrapped.Error())
}

func TestKindExitCodes(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want ExitCode
	}{
		{ErrIO, FileData},
		{ErrFormat, FileData},
		{ErrVersion, FileData},
		{ErrMetadata, Metadata},
		{ErrHeap, HeapAlloc},
		{ErrFeature, Feature},
		{ErrType, Failure},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require.Equal(t, tt.want, New(tt.kind, "x").Code)
		})
	}
}

type codedErr struct{}

func (codedErr) Error() string      { return "coded" }
func (codedErr) ExitCode() ExitCode { return StackOverflow }

func TestExitCodeOf(t *testing.T) {
	require.Equal(t, Success, ExitCodeOf(nil))
	require.Equal(t, Failure, ExitCodeOf(errors.New("plain")))
	require.Equal(t, StackOverflow, ExitCodeOf(fmt.Errorf("ctx: %w", codedErr{})))

	err := New(ErrConfig, "bad level").WithCode(PrintThread)
	require.Equal(t, PrintThread, ExitCodeOf(fmt.Errorf("start: %w", err)))
	require.True(t, IsKind(err, ErrConfig))
	require.False(t, IsKind(err, ErrType))
	require.Equal(t, "output channel failed", PrintThread.Description())
}
