package bytecode

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
	"github.com/stretchr/testify/require"
)

var testVM = buildinfo.Info{Version: buildinfo.Version{Major: 1, Minor: 2, Patch: 0}}

func testOptions() (LoadOptions, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return LoadOptions{VM: testVM, Stdout: &stdout, Stderr: &stderr}, &stdout, &stderr
}

func header(major uint32, minor uint16) *Header {
	return &Header{
		Version:  buildinfo.Version{Major: major, Minor: minor, Patch: 3, Channel: buildinfo.Beta},
		Compiler: "squidc 0.1",
	}
}

func TestDecodeHeaderless(t *testing.T) {
	opts, stdout, _ := testOptions()
	data := []byte{
		0x0A, TagInt, 10, 0, 0, 0, 0, 0, 0, 0,
		0x0A, TagInt, 12, 0, 0, 0, 0, 0, 0, 0,
		0x01,
		0x0E,
		0x00,
	}
	prog, err := Decode(data, opts)
	require.NoError(t, err)
	require.Nil(t, prog.Header())
	require.Equal(t, 5, prog.Len())
	require.Equal(t, op.PushData, prog.OpcodeAt(0))
	require.True(t, immediate.NewInt(12).Equals(prog.OperandAt(1)))
	require.Equal(t, op.IAdd, prog.OpcodeAt(2))
	require.Equal(t, immediate.Nil, prog.OperandAt(2))
	require.Contains(t, stdout.String(), "File doesn't include metadata!")
	require.Contains(t, stdout.String(), "Compatibility can't be guaranteed.")
}

func TestDecodeStopsAtHalt(t *testing.T) {
	opts, _, _ := testOptions()
	prog, err := Decode([]byte{0x0E, 0x00, 0xFF, 0x0A}, opts)
	require.NoError(t, err)
	require.Equal(t, 2, prog.Len())
	require.Equal(t, op.Halt, prog.OpcodeAt(1))
}

func TestDecodeEmpty(t *testing.T) {
	opts, _, _ := testOptions()
	prog, err := Decode(nil, opts)
	require.NoError(t, err)
	require.Equal(t, 0, prog.Len())
}

func TestDecodeOperandKinds(t *testing.T) {
	opts, _, _ := testOptions()
	data := []byte{
		0x0C, 5, 0, 0, 0, 0, 0, 0, 0, // JMPFD 5
		0x19, 1, // NTASK true
		0x1A, 0, // NTHRD false
		0x0A, TagBool, 1,
		0x0A, TagNull,
		0x0A, TagFloat, 0, 0, 0, 0, 0, 0, 0x0C, 0x40, // 3.5
		0x0A, TagUInt, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0x0A, TagInt, 0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // -2
		0x0F, TagString8, 2, 'h', 'i',
		0x16, TagUInt, 7, 0, 0, 0, 0, 0, 0, 0,
		0x18,
		0x00,
	}
	prog, err := Decode(data, opts)
	require.NoError(t, err)
	want := []Instruction{
		IWith(op.JumpData, immediate.NewUInt(5)),
		IWith(op.NewTask, immediate.True),
		IWith(op.NewThread, immediate.False),
		IWith(op.PushData, immediate.True),
		IWith(op.PushData, immediate.Nil),
		IWith(op.PushData, immediate.NewFloat(3.5)),
		IWith(op.PushData, immediate.NewUInt(^uint64(0))),
		IWith(op.PushData, immediate.NewInt(-2)),
		IWith(op.PrintData, immediate.NewMutStr("hi")),
		IWith(op.DerefVarData, immediate.NewUInt(7)),
		I(op.NewWindow),
		I(op.Halt),
	}
	require.Equal(t, len(want), prog.Len())
	for i, w := range want {
		got := prog.At(i)
		require.Equal(t, w.Code, got.Code, "instruction %d", i)
		require.True(t, w.Operand.Equals(got.Operand), "instruction %d: %#v", i, got.Operand)
	}
}

func TestDecodeStringPrefixes(t *testing.T) {
	opts, _, _ := testOptions()
	tests := []struct {
		name string
		data []byte
	}{
		{"u16", []byte{0x0A, TagString16, 3, 0, 'a', 'b', 'c'}},
		{"u32", []byte{0x0A, TagString32, 3, 0, 0, 0, 'a', 'b', 'c'}},
		{"u64", []byte{0x0A, TagString64, 3, 0, 0, 0, 0, 0, 0, 0, 'a', 'b', 'c'}},
		{"u128", append([]byte{0x0A, TagString128, 3}, append(make([]byte, 15), 'a', 'b', 'c')...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Decode(tt.data, opts)
			require.NoError(t, err)
			require.Equal(t, 1, prog.Len())
			require.True(t, immediate.NewMutStr("abc").Equals(prog.OperandAt(0)))
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	opts, _, _ := testOptions()
	tests := []struct {
		name string
		data []byte
		kind errz.ErrorKind
	}{
		{"truncated integer", []byte{0x0A, TagInt, 1, 2}, errz.ErrIO},
		{"missing tag", []byte{0x0A}, errz.ErrIO},
		{"truncated jump", []byte{0x0C, 1, 2, 3}, errz.ErrIO},
		{"missing flag", []byte{0x19}, errz.ErrIO},
		{"string too long", []byte{0x0A, TagString8, 5, 'a'}, errz.ErrIO},
		{"unknown tag", []byte{0x0A, 0x09}, errz.ErrFormat},
		{"bad boolean", []byte{0x0A, TagBool, 2}, errz.ErrFormat},
		{"bad flag", []byte{0x1A, 7}, errz.ErrFormat},
		{"invalid utf-8", []byte{0x0A, TagString8, 2, 0xC3, 0x28}, errz.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, opts)
			require.Error(t, err)
			require.True(t, errz.IsKind(err, tt.kind), "got %v", err)
			require.Equal(t, errz.FileData, errz.ExitCodeOf(err))
		})
	}
}

func TestHeaderAccepted(t *testing.T) {
	opts, stdout, _ := testOptions()
	body := NewProgram(IWith(op.PushData, immediate.NewInt(1)), I(op.Halt))
	data, err := Encode(body, header(1, 2))
	require.NoError(t, err)
	require.Len(t, data, HeaderSize+1+1+8+1)

	prog, err := Decode(data, opts)
	require.NoError(t, err)
	require.Equal(t, 2, prog.Len())
	require.NotNil(t, prog.Header())
	require.Equal(t, "squidc 0.1", prog.Header().Compiler)
	require.Equal(t, uint16(3), prog.Header().Version.Patch)
	require.Empty(t, stdout.String())
}

func TestHeaderRejected(t *testing.T) {
	for _, h := range []*Header{header(2, 0), header(1, 3)} {
		opts, stdout, stderr := testOptions()
		data, err := Encode(NewProgram(I(op.Halt)), h)
		require.NoError(t, err)

		_, err = Decode(data, opts)
		require.True(t, errz.IsKind(err, errz.ErrVersion))
		require.Equal(t, errz.FileData, errz.ExitCodeOf(err))
		require.Contains(t, stderr.String(), "Binary was compiled for a more recent version of the VM!")
		require.Contains(t, stdout.String(), "Current VM version: 1.2.0-release")
		require.Contains(t, stdout.String(), "Binary was compiled for version "+h.Version.String())

		opts.ForceNewer = true
		prog, err := Decode(data, opts)
		require.NoError(t, err)
		require.Equal(t, 1, prog.Len())
	}
}

func TestVersionOnly(t *testing.T) {
	opts, stdout, _ := testOptions()
	opts.PrintVersionOnly = true
	data, err := Encode(NewProgram(I(op.Halt)), header(9, 0))
	require.NoError(t, err)

	_, err = Decode(data, opts)
	require.ErrorIs(t, err, ErrVersionOnly)
	require.Contains(t, stdout.String(), "Compatible with version 9.0.3-Beta and up until next major")
	require.Contains(t, stdout.String(), "Compiled with: squidc 0.1")

	opts, stdout, _ = testOptions()
	opts.PrintVersionOnly = true
	_, err = Decode([]byte{0x00}, opts)
	require.ErrorIs(t, err, ErrVersionOnly)
	require.Contains(t, stdout.String(), "File doesn't include metadata!")
}

func TestMalformedHeader(t *testing.T) {
	opts, _, _ := testOptions()
	_, err := Decode([]byte{HeaderMarker, 1, 0, 0}, opts)
	require.True(t, errz.IsKind(err, errz.ErrMetadata))
	require.Equal(t, errz.Metadata, errz.ExitCodeOf(err))

	data := header(1, 0).encode()
	data[10] = 0xFF
	_, err = Decode(data, opts)
	require.Equal(t, errz.Metadata, errz.ExitCodeOf(err))
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"prog", "prog.sqd"},
		{"prog.sqd", "prog.sqd"},
		{"dir/prog/", "dir/prog.sqd"},
		{`dir\prog\`, `dir\prog.sqd`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePath(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	data, err := Encode(NewProgram(IWith(op.PrintData, immediate.NewMutStr("hello")), I(op.Halt)), header(1, 0))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.sqd"), data, 0o644))

	opts, _, _ := testOptions()
	prog, err := Load(filepath.Join(dir, "hello"), opts)
	require.NoError(t, err)
	require.Equal(t, 2, prog.Len())

	_, err = Load(filepath.Join(dir, "missing"), opts)
	require.True(t, errz.IsKind(err, errz.ErrIO))
	require.Equal(t, errz.FileData, errz.ExitCodeOf(err))
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(NewProgram(IWith(op.JumpData, immediate.NewInt(1))), nil)
	require.Error(t, err)
	_, err = Encode(NewProgram(IWith(op.NewTask, immediate.Nil)), nil)
	require.Error(t, err)
	_, err = Encode(NewProgram(IWith(op.PushData, immediate.NewArray(nil))), nil)
	require.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	prog := NewProgram(
		IWith(op.PushData, immediate.NewStaticStr(string(bytes.Repeat([]byte("x"), 300)))),
		IWith(op.JumpData, immediate.NewUInt(3)),
		IWith(op.NewThread, immediate.True),
		I(op.Swap),
		I(op.Halt),
	)
	data, err := Encode(prog, nil)
	require.NoError(t, err)
	require.Equal(t, TagString16, data[1])

	opts, _, _ := testOptions()
	got, err := Decode(data, opts)
	require.NoError(t, err)
	require.Equal(t, prog.Len(), got.Len())
	for i := 0; i < prog.Len(); i++ {
		require.Equal(t, prog.OpcodeAt(i), got.OpcodeAt(i))
	}
	require.Equal(t, 300, len(got.OperandAt(0).Inspect()))
}
