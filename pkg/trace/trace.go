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


package trace

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lassandro/pcbsim/pkg/machine"
)

const rule = "--------------------------------------"

// Writer formats the trace as text. The first write error is kept and every
// later write is dropped; Flush reports it.
type Writer struct {
	out   *bufio.Writer
	err   error
	Color bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w)}
}

func (tw *Writer) printf(format string, args ...interface{}) {
	if tw.err != nil {
		return
	}

	_, tw.err = fmt.Fprintf(tw.out, format, args...)
}

func (tw *Writer) field(label string, value interface{}) {
	if tw.Color {
		tw.printf("\033[1m%s:\033[0m %v\n", label, value)
	} else {
		tw.printf("%s: %v\n", label, value)
	}
}

// Dump writes every cell of img as "index: value".
func (tw *Writer) Dump(img *machine.Image) {
	tw.printf("Main Memory:\n")

	for i, value := range img.Cells {
		tw.printf("%d: %d\n", i, value)
	}
}

func (tw *Writer) Begin(pid int) {
	tw.field("Executing Process ID", pid)
}

func (tw *Writer) Event(ev machine.Event) {
	if tw.Color && (ev == machine.EVENT_STORE_ERROR || ev == machine.EVENT_LOAD_ERROR) {
		tw.printf("\033[31m%s\033[0m\n", ev)
	} else {
		tw.printf("%s\n", ev)
	}
}

func (tw *Writer) End(pcb machine.PCB) {
	tw.printf("\nPCB Contents (Stored in Main Memory):\n")
	tw.field("Process ID", pcb.ProcessID)
	tw.field("State", pcb.State)
	tw.field("Program Counter", pcb.ProgramCounter)
	tw.field("Instruction Base", pcb.InstructionBase)
	tw.field("Data Base", pcb.DataBase)
	tw.field("Memory Limit", pcb.MemoryLimit)
	tw.field("CPU Cycles Used", pcb.CPUCyclesUsed)
	tw.field("Register Value", pcb.RegisterValue)
	// Printed from the limit word. The max memory word is not shown.
	tw.field("Max Memory Needed", pcb.MemoryLimit)
	tw.field("Main Memory Base", pcb.MainMemoryBase)
	tw.field("Total CPU Cycles Consumed", pcb.CPUCyclesUsed)
	tw.printf("%s\n", rule)
}

func (tw *Writer) Flush() error {
	if tw.err != nil {
		return tw.err
	}

	tw.err = tw.out.Flush()
	return tw.err
}
