package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
)

// Extension is the file extension of Squid binaries.
const Extension = ".sqd"

// ErrVersionOnly is returned by Load when LoadOptions.PrintVersionOnly is
// set, after the version report has been printed.
var ErrVersionOnly = errors.New("version details printed")

// Operand type tags.
const (
	TagNull      byte = 0x00
	TagBool      byte = 0x01
	TagInt       byte = 0x02
	TagUInt      byte = 0x03
	TagFloat     byte = 0x04
	TagString8   byte = 0x0F
	TagString16  byte = 0x1F
	TagString32  byte = 0x2F
	TagString64  byte = 0x3F
	TagString128 byte = 0x4F
)

// LoadOptions configures Load and Decode.
type LoadOptions struct {
	// PrintVersionOnly prints the binary's compatibility details and returns
	// ErrVersionOnly instead of decoding the body.
	PrintVersionOnly bool

	// ForceNewer accepts binaries built for a newer virtual machine.
	ForceNewer bool

	// VM is the build the binary is checked against.
	VM buildinfo.Info

	// Stdout and Stderr receive the version reports. They default to the
	// process streams.
	Stdout io.Writer
	Stderr io.Writer
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// NormalizePath expands a leading ~, strips a trailing path separator and
// appends the binary extension when it is missing.
func NormalizePath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errz.Wrap(errz.ErrIO, err, "invalid path %q", path)
	}
	expanded = strings.TrimRight(expanded, `/\`)
	if !strings.HasSuffix(expanded, Extension) {
		expanded += Extension
	}
	return expanded, nil
}

// Load reads and decodes the binary at path.
func Load(path string, opts LoadOptions) (*Program, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errz.Wrap(errz.ErrIO, err, "unable to read %s", path)
	}
	return Decode(data, opts)
}

// Decode decodes an in-memory binary.
func Decode(data []byte, opts LoadOptions) (*Program, error) {
	opts = opts.withDefaults()
	body := data
	base := 0
	var header *Header
	if len(data) > 0 && data[0] == HeaderMarker {
		var err error
		if header, err = parseHeader(data); err != nil {
			return nil, err
		}
		if opts.PrintVersionOnly {
			printCompatibility(opts.Stdout, header)
			return nil, ErrVersionOnly
		}
		if !opts.ForceNewer && !opts.VM.Version.Accepts(header.Version) {
			printRejection(opts, header)
			return nil, errz.New(errz.ErrVersion,
				"binary was compiled for version %s, the virtual machine is %s",
				header.Version, opts.VM.Version)
		}
		body = data[HeaderSize:]
		base = HeaderSize
	} else {
		printHeaderless(opts.Stdout)
		if opts.PrintVersionOnly {
			return nil, ErrVersionOnly
		}
	}
	d := &decoder{data: body, base: base}
	prog, err := d.decode()
	if err != nil {
		return nil, err
	}
	prog.header = header
	return prog, nil
}

func printCompatibility(w io.Writer, h *Header) {
	channel := h.Version.Channel.String()
	channel = strings.ToUpper(channel[:1]) + channel[1:]
	fmt.Fprintf(w, "Compatible with version %d.%d.%d-%s and up until next major\n",
		h.Version.Major, h.Version.Minor, h.Version.Patch, channel)
	if h.Version.Channel == buildinfo.Alpha || h.Version.Channel == buildinfo.Beta {
		color.New(color.FgRed).Fprintln(w, "In alpha and beta versions the VM will change a lot, so most things will change.")
	}
	fmt.Fprintf(w, "Compiled with: %s\n", h.Compiler)
}

func printRejection(opts LoadOptions, h *Header) {
	color.New(color.BgRed).Fprintln(opts.Stderr, "Binary was compiled for a more recent version of the VM!")
	color.New(color.FgGreen).Fprintf(opts.Stdout, "Current VM version: %s\n", opts.VM.Version)
	color.New(color.FgYellow).Fprintf(opts.Stdout, "Binary was compiled for version %s and up until next major\n", h.Version)
}

func printHeaderless(w io.Writer) {
	color.New(color.BgBlue).Fprintln(w, "File doesn't include metadata!")
	color.New(color.BgRed).Fprintln(w, "Compatibility can't be guaranteed.")
	color.New(color.BgRed).Fprintln(w, "This may affect the proper functioning of the program.")
}

type decoder struct {
	data []byte
	off  int
	base int
}

func (d *decoder) decode() (*Program, error) {
	var instrs []Instruction
	for d.off < len(d.data) {
		code := op.Code(d.data[d.off])
		d.off++
		operand, err := d.operand(code)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, Instruction{Code: code, Operand: operand})
		if code == op.Halt {
			break
		}
	}
	return NewProgram(instrs...), nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || n > len(d.data)-d.off {
		return nil, errz.New(errz.ErrIO, "truncated read at offset %d: need %d bytes, %d left",
			d.base+d.off, n, len(d.data)-d.off)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) operand(code op.Code) (immediate.Immediate, error) {
	switch op.GetInfo(code).Operand {
	case op.Tagged:
		tag, err := d.take(1)
		if err != nil {
			return nil, err
		}
		return d.tagged(code, tag[0])
	case op.Address:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return immediate.NewUInt(binary.LittleEndian.Uint64(b)), nil
	case op.Flag:
		return d.boolean(code)
	default:
		return immediate.Nil, nil
	}
}

func (d *decoder) boolean(code op.Code) (immediate.Immediate, error) {
	b, err := d.take(1)
	if err != nil {
		return nil, err
	}
	switch b[0] {
	case 0:
		return immediate.False, nil
	case 1:
		return immediate.True, nil
	default:
		return nil, errz.FormatErrorf("invalid boolean 0x%02X for %s at offset %d", b[0], code, d.base+d.off-1)
	}
}

func (d *decoder) tagged(code op.Code, tag byte) (immediate.Immediate, error) {
	switch tag {
	case TagNull:
		return immediate.Nil, nil
	case TagBool:
		return d.boolean(code)
	case TagInt, TagUInt, TagFloat:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		bits := binary.LittleEndian.Uint64(b)
		switch tag {
		case TagInt:
			return immediate.NewInt(int64(bits)), nil
		case TagUInt:
			return immediate.NewUInt(bits), nil
		default:
			return immediate.NewFloat(math.Float64frombits(bits)), nil
		}
	case TagString8, TagString16, TagString32, TagString64, TagString128:
		return d.str(tag)
	default:
		return nil, errz.FormatErrorf("invalid operand tag 0x%02X for %s at offset %d", tag, code, d.base+d.off-1)
	}
}

func (d *decoder) str(tag byte) (immediate.Immediate, error) {
	width := map[byte]int{
		TagString8:   1,
		TagString16:  2,
		TagString32:  4,
		TagString64:  8,
		TagString128: 16,
	}[tag]
	prefix, err := d.take(width)
	if err != nil {
		return nil, err
	}
	var length uint64
	switch width {
	case 1:
		length = uint64(prefix[0])
	case 2:
		length = uint64(binary.LittleEndian.Uint16(prefix))
	case 4:
		length = uint64(binary.LittleEndian.Uint32(prefix))
	case 8:
		length = binary.LittleEndian.Uint64(prefix)
	case 16:
		if binary.LittleEndian.Uint64(prefix[8:]) != 0 {
			return nil, errz.New(errz.ErrIO, "truncated read at offset %d: string length exceeds input", d.base+d.off)
		}
		length = binary.LittleEndian.Uint64(prefix[:8])
	}
	if length > uint64(len(d.data)-d.off) {
		return nil, errz.New(errz.ErrIO, "truncated read at offset %d: string of %d bytes, %d left",
			d.base+d.off, length, len(d.data)-d.off)
	}
	b, _ := d.take(int(length))
	if !utf8.Valid(b) {
		return nil, errz.FormatErrorf("invalid utf-8 string at offset %d", d.base+d.off-len(b))
	}
	return immediate.NewMutStr(string(b)), nil
}
