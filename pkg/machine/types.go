// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.


package machine

type Opcode int
type State int
type Field int
type Sizing uint
type Event uint

// Number of parameter words an opcode consumes. Unknown opcodes consume none.
func (op Opcode) Arity() int {
	switch op {
	case OP_COMPUTE, OP_STORE:
		return 2
	case OP_PRINT, OP_LOAD:
		return 1
	}

	return 0
}

func (op Opcode) String() string {
	switch op {
	case OP_COMPUTE:
		return "COMPUTE"
	case OP_PRINT:
		return "PRINT"
	case OP_STORE:
		return "STORE"
	case OP_LOAD:
		return "LOAD"
	}

	return "<invalid>"
}

func (st State) String() string {
	switch st {
	case STATE_NEW:
		return "NEW"
	case STATE_READY:
		return "READY"
	case STATE_RUNNING:
		return "RUNNING"
	case STATE_TERMINATED:
		return "TERMINATED"
	}

	return "<invalid>"
}

// RecordSize returns the number of words reserved for a record holding
// count instructions whose parameters total params words.
func (s Sizing) RecordSize(count int, params int) int {
	if s == SIZING_FLAT {
		return PCB_SIZE + count + 2*count
	}

	return PCB_SIZE + count + params
}

func (s Sizing) String() string {
	switch s {
	case SIZING_EXACT:
		return "exact"
	case SIZING_FLAT:
		return "flat"
	}

	return "<invalid>"
}

// The literal trace line for the event
func (ev Event) String() string {
	switch ev {
	case EVENT_COMPUTE:
		return "compute"
	case EVENT_PRINT:
		return "print"
	case EVENT_STORED:
		return "stored"
	case EVENT_STORE_ERROR:
		return "store error!"
	case EVENT_LOADED:
		return "loaded"
	case EVENT_LOAD_ERROR:
		return "load error!"
	}

	return "<invalid>"
}

// Instruction is one of Compute, Print, Store or Load.
type Instruction interface {
	Opcode() Opcode

	// Parameter words in the order they are laid out in memory
	Params() []int

	instruction()
}

type Compute struct {
	Iterations int
	Cycles     int
}

type Print struct {
	Cycles int
}

type Store struct {
	Value   int
	Address int
}

type Load struct {
	Address int
}

func (Compute) Opcode() Opcode { return OP_COMPUTE }
func (Print) Opcode() Opcode   { return OP_PRINT }
func (Store) Opcode() Opcode   { return OP_STORE }
func (Load) Opcode() Opcode    { return OP_LOAD }

func (Compute) instruction() {}
func (Print) instruction()   {}
func (Store) instruction()   {}
func (Load) instruction()    {}

func (in Compute) Params() []int { return []int{in.Iterations, in.Cycles} }
func (in Print) Params() []int   { return []int{in.Cycles} }
func (in Store) Params() []int   { return []int{in.Value, in.Address} }
func (in Load) Params() []int    { return []int{in.Address} }

// Process describes one program before it is placed in memory.
type Process struct {
	ID           int
	MaxMemory    int
	Instructions []Instruction
}

// Placement records where the encoder put a process.
type Placement struct {
	ProcessID int
	Base      int
	Size      int
}

// PCB is a snapshot of a record's header as the interpreter leaves it.
type PCB struct {
	ProcessID       int
	State           State
	ProgramCounter  int
	InstructionBase int
	DataBase        int
	MemoryLimit     int
	CPUCyclesUsed   int
	RegisterValue   int
	MaxMemoryNeeded int
	MainMemoryBase  int
}

// Sink receives the execution trace in order.
type Sink interface {
	Begin(pid int)
	Event(ev Event)
	End(pcb PCB)
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr int, mc *Machine)
	Write(addr int, mc *Machine)
}

type Image struct {
	Cells []int
}

type record struct {
	base   int
	count  int
	index  int
	param  int
	active bool
}

type Machine struct {
	Image    *Image
	Sink     Sink
	Debugger MachineDebugger
	Sizing   Sizing

	start   int
	planned bool
	bases   []int // record boundaries found before the run began
	slot    int
	halted  bool
	rec     record
}
