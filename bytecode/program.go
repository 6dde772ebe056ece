package bytecode

import (
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
)

// Program is a decoded binary: parallel opcode and operand tables. A program
// is read-only once built and may be shared by any number of units.
type Program struct {
	opcodes  []op.Code
	operands []immediate.Immediate
	header   *Header
}

// Instruction pairs an opcode with its operand.
type Instruction struct {
	Code    op.Code
	Operand immediate.Immediate
}

// I returns an instruction without an operand.
func I(code op.Code) Instruction {
	return Instruction{Code: code, Operand: immediate.Nil}
}

// IWith returns an instruction carrying operand.
func IWith(code op.Code, operand immediate.Immediate) Instruction {
	return Instruction{Code: code, Operand: operand}
}

// NewProgram builds a program from instructions. Missing operands default to
// Null.
func NewProgram(instructions ...Instruction) *Program {
	p := &Program{
		opcodes:  make([]op.Code, len(instructions)),
		operands: make([]immediate.Immediate, len(instructions)),
	}
	for i, instr := range instructions {
		p.opcodes[i] = instr.Code
		if instr.Operand == nil {
			p.operands[i] = immediate.Nil
		} else {
			p.operands[i] = instr.Operand
		}
	}
	return p
}

// WithHeader returns a copy of the program that carries h.
func (p *Program) WithHeader(h *Header) *Program {
	return &Program{opcodes: p.opcodes, operands: p.operands, header: h}
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.opcodes)
}

// OpcodeAt returns the opcode at index i.
func (p *Program) OpcodeAt(i int) op.Code {
	return p.opcodes[i]
}

// OperandAt returns the operand at index i.
func (p *Program) OperandAt(i int) immediate.Immediate {
	return p.operands[i]
}

// At returns the instruction at index i.
func (p *Program) At(i int) Instruction {
	return Instruction{Code: p.opcodes[i], Operand: p.operands[i]}
}

// Header returns the binary header, or nil for headerless programs.
func (p *Program) Header() *Header {
	return p.header
}
