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


package debugger

import (
	"fmt"
	"io"

	"golang.org/x/exp/slices"

	"github.com/lassandro/pcbsim/pkg/machine"
)

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	addr, ok := mc.Next()

	if !ok {
		return
	}

	if dbg.HasBreakpoint(addr) {
		dbg.HandleBreak(dbg, mc)
	}
}

func (dbg *Debugger) Read(addr int, mc *machine.Machine) {
	if dbg.watching(addr, ReadWatch) {
		dbg.HandleRead(addr, dbg, mc)
	}
}

func (dbg *Debugger) Write(addr int, mc *machine.Machine) {
	if dbg.watching(addr, WriteWatch) {
		dbg.HandleWrite(addr, dbg, mc)
	}
}

func (dbg *Debugger) watching(addr int, wtype WatchpointType) bool {
	return slices.IndexFunc(dbg.Watchpoints, func(wp Watchpoint) bool {
		return wp.Addr == addr && wp.Type&wtype != 0
	}) >= 0
}

func (dbg *Debugger) HasBreakpoint(addr int) bool {
	return slices.Contains(dbg.Breakpoints, Breakpoint{addr})
}

// Returns false if the breakpoint already exists
func (dbg *Debugger) AddBreakpoint(addr int) bool {
	if dbg.HasBreakpoint(addr) {
		return false
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

// Returns false if the watchpoint already exists
func (dbg *Debugger) AddWatchpoint(addr int, wtype WatchpointType) bool {
	if slices.Contains(dbg.Watchpoints, Watchpoint{addr, wtype}) {
		return false
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) RemoveBreakpoint(i int) bool {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return false
	}

	dbg.Breakpoints = slices.Delete(dbg.Breakpoints, i, i+1)
	return true
}

func (dbg *Debugger) RemoveWatchpoint(i int) bool {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return false
	}

	dbg.Watchpoints = slices.Delete(dbg.Watchpoints, i, i+1)
	return true
}

// Placement returns the placement of the record containing addr.
func (dbg *Debugger) Placement(addr int) (machine.Placement, bool) {
	i := slices.IndexFunc(dbg.Placements, func(p machine.Placement) bool {
		return addr >= p.Base && addr < p.Base+p.Size
	})

	if i < 0 {
		return machine.Placement{}, false
	}

	return dbg.Placements[i], true
}

// PrintMem writes count cells from addr, cols to a row. Empty cells are dimmed
// when color is set.
func PrintMem(w io.Writer, img *machine.Image, addr, count, cols int, color bool) {
	if cols < 1 {
		cols = 1
	}

	for i := addr; i < addr+count; i++ {
		if i != addr && (i-addr)%cols == 0 {
			fmt.Fprintln(w)
		}

		if i == addr || (i-addr)%cols == 0 {
			if color {
				fmt.Fprintf(w, "\033[1m[%04d]\033[0m ", i)
			} else {
				fmt.Fprintf(w, "[%04d] ", i)
			}
		}

		if !img.InBounds(i) {
			fmt.Fprintf(w, "%6s ", "--")
			continue
		}

		value := img.Read(i)

		if value == machine.EMPTY && color {
			fmt.Fprintf(w, "\033[1;30m%6d\033[0m ", value)
		} else {
			fmt.Fprintf(w, "%6d ", value)
		}
	}

	fmt.Fprintln(w)
}

// PrintPCB writes the header of the record at base and its decoded
// instructions.
func PrintPCB(w io.Writer, img *machine.Image, base int) {
	if !img.InBounds(base) || base+machine.PCB_SIZE > img.Len() {
		fmt.Fprintf(w, "No record at %d\n", base)
		return
	}

	pcb := img.PCB(base)
	count := img.Field(base, machine.PCB_COUNT)

	fmt.Fprintf(w, "Process ID:       %d\n", pcb.ProcessID)
	fmt.Fprintf(w, "State:            %s\n", pcb.State)
	fmt.Fprintf(w, "Program Counter:  %d/%d\n", pcb.ProgramCounter, count)
	fmt.Fprintf(w, "Instruction Base: %d\n", pcb.InstructionBase)
	fmt.Fprintf(w, "Data Base:        %d\n", pcb.DataBase)
	fmt.Fprintf(w, "Memory Limit:     %d\n", pcb.MemoryLimit)
	fmt.Fprintf(w, "CPU Cycles Used:  %d\n", pcb.CPUCyclesUsed)
	fmt.Fprintf(w, "Register Value:   %d\n", pcb.RegisterValue)

	if count < 0 || pcb.DataBase > img.Len() {
		return
	}

	param := pcb.DataBase

	for i := 0; i < count; i++ {
		opcode := machine.Opcode(img.Read(pcb.InstructionBase + i))
		params := make([]int, 0, 2)

		for j := 0; j < opcode.Arity() && img.InBounds(param); j++ {
			params = append(params, img.Read(param))
			param++
		}

		fmt.Fprintf(w, "  [%04d] %-8s %v\n", pcb.InstructionBase+i, opcode, params)
	}
}

// PrintProcs writes one line per placement with the state of its record.
// Placements that no longer fit the image are reported as such.
func PrintProcs(w io.Writer, img *machine.Image, placed []machine.Placement, color bool) {
	for _, p := range placed {
		addr := fmt.Sprintf("[%04d]", p.Base)

		if color {
			addr = "\033[1m" + addr + "\033[0m"
		}

		if p.Base < 0 || !img.InBounds(p.Base+int(machine.PCB_STATE)) {
			fmt.Fprintf(w, "%s process %d, outside image\n", addr, p.ProcessID)
			continue
		}

		state := machine.State(img.Field(p.Base, machine.PCB_STATE))
		fmt.Fprintf(w, "%s process %d, %d words, %s\n", addr, p.ProcessID, p.Size, state)
	}
}
