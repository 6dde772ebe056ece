package bytecode

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/errz"
)

const (
	// HeaderSize is the size of a binary header in bytes.
	HeaderSize = 32
	// HeaderMarker is the first byte of a binary that has a header.
	HeaderMarker = 0x01
	// CompilerNameSize is the width of the compiler name field.
	CompilerNameSize = 22
)

// Header is the metadata block at the start of a binary.
type Header struct {
	Version  buildinfo.Version
	Compiler string
}

func parseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, errz.New(errz.ErrMetadata, "INVALID FILE METADATA! header is %d bytes, want %d",
			len(data), HeaderSize)
	}
	name := bytes.TrimRight(data[10:HeaderSize], "\x00")
	if !utf8.Valid(name) {
		return nil, errz.New(errz.ErrMetadata, "INVALID FILE METADATA! compiler name is not valid utf-8")
	}
	return &Header{
		Version: buildinfo.Version{
			Major:   binary.LittleEndian.Uint32(data[1:5]),
			Minor:   binary.LittleEndian.Uint16(data[5:7]),
			Patch:   binary.LittleEndian.Uint16(data[7:9]),
			Channel: buildinfo.Channel(data[9]),
		},
		Compiler: string(name),
	}, nil
}

// encode returns the 32 byte representation of the header. Compiler names
// longer than the field are truncated.
func (h *Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = HeaderMarker
	binary.LittleEndian.PutUint32(buf[1:5], h.Version.Major)
	binary.LittleEndian.PutUint16(buf[5:7], h.Version.Minor)
	binary.LittleEndian.PutUint16(buf[7:9], h.Version.Patch)
	buf[9] = byte(h.Version.Channel)
	copy(buf[10:], h.Compiler)
	return buf
}
