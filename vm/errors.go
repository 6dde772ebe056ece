package vm

import "github.com/squidvm/squid/errz"

var (
	ErrNoIntegers        = errz.New(errz.ErrType, "[ NO INTEGERS ]")
	ErrNoFloats          = errz.New(errz.ErrType, "[ NO FLOATS ]")
	ErrNoBooleans        = errz.New(errz.ErrType, "[ NO BOOLEANS ]")
	ErrWrongAddress      = errz.New(errz.ErrType, "[ WRONG ADDRESS ]")
	ErrInvalidVarPointer = errz.New(errz.ErrType, "[ INVALID VAR POINTER ]")
	ErrInvalidVarName    = errz.New(errz.ErrType, "[ INVALID VAR NAME ]")
	ErrWrongVarName      = errz.New(errz.ErrType, "[ WRONG VARIABLE NAME ]")
	ErrSpawnFlag         = errz.New(errz.ErrType, "[ SPAWN FLAG MUST BE A BOOLEAN ]")

	ErrDivisionByZero     = errz.New(errz.ErrRuntime, "[ DIVISION BY ZERO ]")
	ErrUnknownInstruction = errz.New(errz.ErrRuntime, "[ UNKNOWN INSTRUCTION ]")
	ErrPCOutOfRange       = errz.New(errz.ErrRuntime, "[ PROGRAM COUNTER OUT OF RANGE ]")
	ErrPanic              = errz.New(errz.ErrRuntime, "[ PANIC ]")
	ErrHalted             = errz.New(errz.ErrRuntime, "execution halted by observer")

	ErrNestedThread = errz.New(errz.ErrRuntime, "Threads cannot be created inside other tasks/threads!")
	ErrTaskInThread = errz.New(errz.ErrRuntime, "Tasks cannot be created inside threads!")
	ErrTasksOff     = errz.New(errz.ErrFeature, "Tasks are disabled on this machine")
)
