package immediate

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/squidvm/squid/errz"
)

// MaxWidth is the widest in-memory representation of a value. Null is stored
// on the heap as a zero buffer of this width.
const MaxWidth = 32

// Serialize returns the heap payload of v. Numbers are eight little endian
// bytes, booleans a single byte, strings their UTF-8 bytes and binaries a
// copy of their contents. Arrays cannot be serialized.
func Serialize(v Immediate) ([]byte, error) {
	switch v := v.(type) {
	case *NullType:
		return make([]byte, MaxWidth), nil
	case *Bool:
		if v.value {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case *Int:
		return binary.LittleEndian.AppendUint64(nil, uint64(v.value)), nil
	case *UInt:
		return binary.LittleEndian.AppendUint64(nil, v.value), nil
	case *Float:
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v.value)), nil
	case *StaticStr:
		return []byte(v.value), nil
	case *MutStr:
		return []byte(v.value), nil
	case *Binary:
		return append([]byte(nil), v.value...), nil
	case *Array:
		return nil, errz.FormatErrorf("arrays have no heap representation")
	default:
		return nil, errz.TypeErrorf("unable to serialize %T", v)
	}
}

// Deserialize rebuilds a value of type t from a heap payload produced by
// Serialize.
func Deserialize(t Type, data []byte) (Immediate, error) {
	switch t {
	case NULL:
		return Nil, nil
	case BOOLEAN:
		if len(data) != 1 || data[0] > 1 {
			return nil, errz.FormatErrorf("invalid boolean payload % X", data)
		}
		return NewBool(data[0] == 1), nil
	case INTEGER, UINTEGER, FLOAT:
		if len(data) != 8 {
			return nil, errz.FormatErrorf("%s payload must be 8 bytes, got %d", t, len(data))
		}
		bits := binary.LittleEndian.Uint64(data)
		switch t {
		case INTEGER:
			return NewInt(int64(bits)), nil
		case UINTEGER:
			return NewUInt(bits), nil
		default:
			return NewFloat(math.Float64frombits(bits)), nil
		}
	case STATIC_STR, MUT_STR:
		if !utf8.Valid(data) {
			return nil, errz.FormatErrorf("invalid utf-8 in %s payload", t)
		}
		if t == STATIC_STR {
			return NewStaticStr(string(data)), nil
		}
		return NewMutStr(string(data)), nil
	case BINARY:
		return NewBinary(data), nil
	default:
		return nil, errz.FormatErrorf("%s has no heap representation", t)
	}
}
