// Package bytecode loads and encodes Squid binaries.
//
// A binary is an optional 32 byte header followed by a body of instructions.
// The header starts with the byte 0x01 and records the virtual machine
// version the binary was built for, its release channel and the name of the
// compiler that produced it:
//
//	offset  size  field
//	0       1     0x01
//	1       4     major (u32, little endian)
//	5       2     minor (u16)
//	7       2     patch (u16)
//	9       1     channel (0 release, 1 alpha, 2 beta)
//	10      22    compiler name (UTF-8, NUL padded)
//
// Each instruction is one opcode byte followed by the encoding its operand
// kind requires (see [op.OperandKind]). Tagged operands start with a type
// tag:
//
//	0x00  Null
//	0x01  Boolean, one byte
//	0x02  Integer, 8 bytes
//	0x03  UInteger, 8 bytes
//	0x04  Float, 8 bytes
//	0x0F  string with a 1 byte length
//	0x1F  string with a 2 byte length
//	0x2F  string with a 4 byte length
//	0x3F  string with an 8 byte length
//	0x4F  string with a 16 byte length
//
// Decoding stops after a HALT instruction or at the end of the input.
//
// Example:
//
//	prog, err := bytecode.Load("hello.sqd", bytecode.LoadOptions{VM: buildinfo.Default()})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(prog.Len())
package bytecode
