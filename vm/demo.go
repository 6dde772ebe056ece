package vm

import (
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
)

// DemoProgram returns the program spawned units run unless the machine is
// configured otherwise. It prints "2" four times and halts.
func DemoProgram() *bytecode.Program {
	var instrs []bytecode.Instruction
	for i := 0; i < 4; i++ {
		instrs = append(instrs,
			bytecode.IWith(op.PushData, immediate.NewInt(1)),
			bytecode.IWith(op.PushData, immediate.NewInt(1)),
			bytecode.I(op.IAdd),
			bytecode.I(op.PrintTop),
		)
	}
	return bytecode.NewProgram(append(instrs, bytecode.I(op.Halt))...)
}
