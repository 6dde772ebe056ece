// Package op defines the opcodes executed by the Squid virtual machine.
package op

// Code is a one byte opcode that indicates an operation to execute.
type Code uint8

const (
	Halt Code = 0x00

	// Arithmetic
	IAdd  Code = 0x01
	ISub  Code = 0x02
	IMul  Code = 0x03
	IDvd  Code = 0x04
	FIDvd Code = 0x05 // Integer division producing a float
	FAdd  Code = 0x06
	FSub  Code = 0x07
	FMul  Code = 0x08
	FDvd  Code = 0x09
	IExp  Code = 0x10
	FExp  Code = 0x11
	FIExp Code = 0x12 // Float base, integer exponent

	// Data movement
	PushData  Code = 0x0A // Push the operand onto the stack
	PopData   Code = 0x0B // Pop the stack into the operand register
	JumpData  Code = 0x0C // Jump to the u64 operand
	JumpStack Code = 0x0D // Jump to the address on the stack
	PrintTop  Code = 0x0E // Pop and print
	PrintData Code = 0x0F // Print the operand

	// Variables and units
	AddVarPointer Code = 0x15
	DerefVarData  Code = 0x16
	DerefVarStack Code = 0x17
	NewWindow     Code = 0x18
	NewTask       Code = 0x19
	NewThread     Code = 0x1A
	Panic         Code = 0x1B
	Peek          Code = 0x1C
	Swap          Code = 0x1D

	// Comparison and logic
	Equals      Code = 0x1E
	LessThan    Code = 0x1F
	GreaterThan Code = 0x20
	And         Code = 0x21
	Or          Code = 0x22
)

// OperandKind describes how an opcode's operand is encoded in a binary.
type OperandKind uint8

const (
	// NoOperand means the opcode is a single byte.
	NoOperand OperandKind = iota
	// Tagged means the opcode is followed by a type tag and its payload.
	Tagged
	// Address means the opcode is followed by a little endian u64.
	Address
	// Flag means the opcode is followed by a single boolean byte.
	Flag
)

func (k OperandKind) String() string {
	switch k {
	case NoOperand:
		return "none"
	case Tagged:
		return "tagged"
	case Address:
		return "address"
	case Flag:
		return "flag"
	default:
		return "unknown"
	}
}

// Info contains information about an opcode.
type Info struct {
	Code    Code
	Name    string
	Operand OperandKind
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op      Code
		name    string
		operand OperandKind
	}
	ops := []opInfo{
		{Halt, "HALT", NoOperand},
		{IAdd, "I_ADD", NoOperand},
		{ISub, "I_SUB", NoOperand},
		{IMul, "I_MUL", NoOperand},
		{IDvd, "I_DVD", NoOperand},
		{FIDvd, "F_I_DVD", NoOperand},
		{FAdd, "F_ADD", NoOperand},
		{FSub, "F_SUB", NoOperand},
		{FMul, "F_MUL", NoOperand},
		{FDvd, "F_DVD", NoOperand},
		{PushData, "PDTS", Tagged},
		{PopData, "PDFS", NoOperand},
		{JumpData, "JMPFD", Address},
		{JumpStack, "JMPFS", NoOperand},
		{PrintTop, "PRTFS", NoOperand},
		{PrintData, "PRTFD", Tagged},
		{IExp, "I_EXP", NoOperand},
		{FExp, "F_EXP", NoOperand},
		{FIExp, "F_I_EXP", NoOperand},
		{AddVarPointer, "AVP", NoOperand},
		{DerefVarData, "D_VFD", Tagged},
		{DerefVarStack, "D_VFS", NoOperand},
		{NewWindow, "NTW", NoOperand},
		{NewTask, "NTASK", Flag},
		{NewThread, "NTHRD", Flag},
		{Panic, "PANIC", NoOperand},
		{Peek, "PEEK", NoOperand},
		{Swap, "SWAP", NoOperand},
		{Equals, "EQUALS", NoOperand},
		{LessThan, "LESSTHAN", NoOperand},
		{GreaterThan, "GREATERTHAN", NoOperand},
		{And, "AND", NoOperand},
		{Or, "OR", NoOperand},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:    o.name,
			Code:    o.op,
			Operand: o.operand,
		}
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes have
// an empty name.
func GetInfo(op Code) Info {
	return infos[op]
}

// Known reports whether the opcode is part of the instruction set.
func Known(op Code) bool {
	return infos[op].Name != ""
}

// String returns the mnemonic of the opcode, or its hex value when the opcode
// is unknown.
func (c Code) String() string {
	if name := infos[c].Name; name != "" {
		return name
	}
	return unknownName(c)
}

func unknownName(c Code) string {
	const hex = "0123456789ABCDEF"
	return "0x" + string([]byte{hex[c>>4], hex[c&0x0F]})
}
