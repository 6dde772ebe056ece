// Package dis supports analysis of squid bytecode by disassembling a
// decoded Program into a readable listing.
package dis

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/internal/table"
	"github.com/squidvm/squid/op"
)

// Instruction is a single disassembled instruction.
type Instruction struct {
	Offset     int                 `json:"offset"`
	Name       string              `json:"opcode"`
	Opcode     op.Code             `json:"code"`
	Operand    immediate.Immediate `json:"-"`
	Value      any                 `json:"operand,omitempty"`
	Type       immediate.Type      `json:"type,omitempty"`
	Annotation string              `json:"info,omitempty"`
}

// Disassemble returns a parsed representation of the given program.
func Disassemble(p *bytecode.Program) []Instruction {
	instructions := make([]Instruction, 0, p.Len())
	for i := 0; i < p.Len(); i++ {
		code := p.OpcodeAt(i)
		info := op.GetInfo(code)
		instr := Instruction{
			Offset: i,
			Name:   code.String(),
			Opcode: code,
		}
		switch {
		case !op.Known(code):
			instr.Annotation = "unknown instruction"
		case info.Operand != op.NoOperand:
			operand := p.OperandAt(i)
			instr.Operand = operand
			instr.Value = operand.Interface()
			instr.Type = operand.Type()
			instr.Annotation = annotate(info, operand, p.Len())
		}
		instructions = append(instructions, instr)
	}
	return instructions
}

func annotate(info op.Info, operand immediate.Immediate, n int) string {
	switch info.Operand {
	case op.Address:
		if addr, ok := operand.(*immediate.UInt); ok && addr.Value() >= uint64(n) {
			return "jump out of range"
		}
		return "jump"
	case op.Flag:
		if operand == immediate.True {
			return "spawn"
		}
		return "skip"
	}
	switch info.Code {
	case op.PushData:
		if operand.Type() == immediate.NULL {
			return "no-op"
		}
	case op.DerefVarData:
		return "variable"
	}
	return string(operand.Type())
}

// Print a table of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	bold := color.New(color.Bold)
	var lines [][]string
	for _, instr := range instructions {
		values := []string{
			strconv.Itoa(instr.Offset),
			bold.Sprint(instr.Name),
			formatOperand(instr.Operand),
			color.CyanString(instr.Annotation),
		}
		if instr.Annotation == "" {
			values[3] = ""
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERAND", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

func formatOperand(v immediate.Immediate) string {
	switch v := v.(type) {
	case nil:
		return ""
	case *immediate.Int, *immediate.UInt, *immediate.Float:
		return color.YellowString(v.Inspect())
	case *immediate.Bool:
		return color.MagentaString(v.Inspect())
	case *immediate.StaticStr, *immediate.MutStr:
		s := v.Inspect()
		if len(s) > 80 {
			s = s[:77] + "..."
		}
		return color.GreenString(fmt.Sprintf("%q", s))
	default:
		return v.Inspect()
	}
}
