package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
)

// Encode writes the program in the binary format read by Decode. A nil
// header produces a headerless binary.
func Encode(p *Program, h *Header) ([]byte, error) {
	var buf []byte
	if h != nil {
		buf = append(buf, h.encode()...)
	}
	for i := 0; i < p.Len(); i++ {
		code, operand := p.OpcodeAt(i), p.OperandAt(i)
		buf = append(buf, byte(code))
		var err error
		switch op.GetInfo(code).Operand {
		case op.Tagged:
			buf, err = appendTagged(buf, operand)
		case op.Address:
			addr, ok := operand.(*immediate.UInt)
			if !ok {
				return nil, errz.TypeErrorf("%s at %d needs a UInteger operand, got %s", code, i, operand.Type())
			}
			buf = binary.LittleEndian.AppendUint64(buf, addr.Value())
		case op.Flag:
			flag, ok := operand.(*immediate.Bool)
			if !ok {
				return nil, errz.TypeErrorf("%s at %d needs a Boolean operand, got %s", code, i, operand.Type())
			}
			buf = append(buf, boolByte(flag.Value()))
		}
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendTagged(buf []byte, v immediate.Immediate) ([]byte, error) {
	switch v := v.(type) {
	case *immediate.NullType:
		return append(buf, TagNull), nil
	case *immediate.Bool:
		return append(buf, TagBool, boolByte(v.Value())), nil
	case *immediate.Int:
		return binary.LittleEndian.AppendUint64(append(buf, TagInt), uint64(v.Value())), nil
	case *immediate.UInt:
		return binary.LittleEndian.AppendUint64(append(buf, TagUInt), v.Value()), nil
	case *immediate.Float:
		return binary.LittleEndian.AppendUint64(append(buf, TagFloat), math.Float64bits(v.Value())), nil
	case *immediate.MutStr:
		return appendString(buf, v.Value()), nil
	case *immediate.StaticStr:
		return appendString(buf, v.Value()), nil
	default:
		return nil, errz.FormatErrorf("%s operands cannot be encoded", v.Type())
	}
}

// appendString uses the narrowest length prefix that fits s.
func appendString(buf []byte, s string) []byte {
	n := uint64(len(s))
	switch {
	case n <= math.MaxUint8:
		buf = append(buf, TagString8, byte(n))
	case n <= math.MaxUint16:
		buf = binary.LittleEndian.AppendUint16(append(buf, TagString16), uint16(n))
	case n <= math.MaxUint32:
		buf = binary.LittleEndian.AppendUint32(append(buf, TagString32), uint32(n))
	default:
		buf = binary.LittleEndian.AppendUint64(append(buf, TagString64), n)
	}
	return append(buf, s...)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
