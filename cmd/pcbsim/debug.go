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


package main

import (
	"bufio"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lassandro/pcbsim/pkg/debugger"
	"github.com/lassandro/pcbsim/pkg/encoding"
	"github.com/lassandro/pcbsim/pkg/machine"
)

var lastcmd []string
var walking bool

func bold(s string) string {
	if useColor(os.Stdout) {
		return "\033[1m" + s + "\033[0m"
	}

	return s
}

func memColumns() int {
	cols := (termColumns(os.Stdout) - 7) / 7

	if cols < 1 {
		return 1
	}

	return cols
}

func indexFormat(count int) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %%d %%s\n", int64(digits)+1)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [address]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeWord(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%04d]\n", addr)
		}

	case "l", "ls", "list":
		if len(args) != 0 {
			log.Println("break list")
			return
		}

		fmtstring := indexFormat(len(dbg.Breakpoints))

		for i, breakpoint := range dbg.Breakpoints {
			owner := ""

			if p, ok := dbg.Placement(breakpoint.Addr); ok {
				owner = fmt.Sprintf("(process %d)", p.ProcessID)
			}

			fmt.Printf(fmtstring, i, breakpoint.Addr, owner)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if !dbg.RemoveBreakpoint(i) {
			log.Println("Invalid breakpoint number")
			return
		}

		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm]"

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [address] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeWord(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType
		var typename string

		switch args[1] {
		case "r", "read":
			wtype, typename = debugger.ReadWatch, "R"
		case "w", "write":
			wtype, typename = debugger.WriteWatch, "W"
		case "rw", "rwrite", "readwrite":
			wtype, typename = debugger.ReadWriteWatch, "RW"
		default:
			log.Println(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [%04d] (%s)\n", addr, typename)
		}

	case "l", "ls", "list":
		if len(args) != 0 {
			log.Println("watch list")
			return
		}

		fmtstring := indexFormat(len(dbg.Watchpoints))

		for i, watchpoint := range dbg.Watchpoints {
			switch watchpoint.Type {
			case debugger.WriteWatch:
				fmt.Printf(fmtstring, i, watchpoint.Addr, "write")
			case debugger.ReadWatch:
				fmt.Printf(fmtstring, i, watchpoint.Addr, "read")
			case debugger.ReadWriteWatch:
				fmt.Printf(fmtstring, i, watchpoint.Addr, "rwrite")
			}
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if !dbg.RemoveWatchpoint(i) {
			log.Println("Invalid watchpoint number")
			return
		}

		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func debugMemory(mc *machine.Machine, args []string) {
	const usage = "memory [address] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr, ok := mc.Next()

	if !ok {
		addr = 0
	}

	size := memColumns()

	if len(args) > 0 {
		value, err := encoding.DecodeWord(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		addr = value
	}

	if len(args) > 1 {
		value, err := strconv.Atoi(args[1])

		if err != nil || value < 1 {
			log.Println(usage)
			return
		}

		size = value
	}

	debugger.PrintMem(os.Stdout, mc.Image, addr, size, memColumns(), useColor(os.Stdout))
}

func debugSet(mc *machine.Machine, args []string) {
	const usage = "set [address] [value]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, err := encoding.DecodeWord(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err := encoding.DecodeWord(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if !mc.Image.InBounds(addr) {
		log.Printf("Address %d is outside memory [0, %d)\n", addr, mc.Image.Len())
		return
	}

	mc.Image.Write(addr, value)
	debugger.PrintMem(os.Stdout, mc.Image, addr, 1, 1, useColor(os.Stdout))
}

func debugPCB(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "pcb [base]"

	if len(args) > 1 {
		log.Println(usage)
		return
	}

	var base int

	if len(args) == 1 {
		value, err := encoding.DecodeWord(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		base = value
	} else if current, ok := mc.Current(); ok {
		base = current
	} else if next, ok := mc.Next(); ok {
		base = next - machine.PCB_SIZE
	} else {
		fmt.Println("No record in progress")
		return
	}

	debugger.PrintPCB(os.Stdout, mc.Image, base)
}

func debugProcs(dbg *debugger.Debugger, mc *machine.Machine) {
	if len(dbg.Placements) == 0 {
		fmt.Println("No placement table loaded")
		return
	}

	debugger.PrintProcs(os.Stdout, mc.Image, dbg.Placements, useColor(os.Stdout))
}

func printLocation(dbg *debugger.Debugger, mc *machine.Machine) {
	addr, ok := mc.Next()

	if !ok {
		fmt.Println("Machine halted")
		return
	}

	opcode := machine.Opcode(mc.Image.Read(addr))

	if p, found := dbg.Placement(addr); found {
		fmt.Printf(
			"%s %s (process %d)\n", bold(fmt.Sprintf("[%04d]", addr)), opcode, p.ProcessID,
		)
	} else {
		fmt.Printf("%s %s\n", bold(fmt.Sprintf("[%04d]", addr)), opcode)
	}
}

// Single steps on key presses. Returns false to drop back to the prompt.
func walk(dbg *debugger.Debugger, mc *machine.Machine) bool {
	if err := enterCbreakTerm(); err != nil {
		log.Println(err)
		walking = false
		return false
	}

	defer exitCbreakTerm()

	printLocation(dbg, mc)

	key := make([]byte, 1)

	for {
		n, err := os.Stdin.Read(key)

		if err != nil || n == 0 {
			shouldexit = true
			return true
		}

		switch key[0] {
		case ' ', 'n', 's', '\n':
			dbg.Break = true
			return true
		case 'c':
			walking = false
			dbg.Break = false
			return true
		case 'q':
			shouldexit = true
			return true
		case 'r', 0x1b:
			walking = false
			return false
		}
	}
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "m", "mem", "memory":
			debugMemory(mc, args)

		case "set":
			debugSet(mc, args)

		case "p", "pcb":
			debugPCB(dbg, mc, args)

		case "procs", "processes":
			debugProcs(dbg, mc)

		case "where":
			printLocation(dbg, mc)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "walk":
			fmt.Println("space: step, c: continue, r: prompt, q: quit")
			walking = true
			dbg.Break = true
			return

		case "q", "quit", "exit":
			shouldexit = true
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if walking {
		if walk(dbg, mc) {
			return
		}
	} else if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
	}

	printLocation(dbg, mc)
	debugREPL(dbg, mc)
}

func handleRead(addr int, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped (read)")
	debugger.PrintMem(os.Stdout, mc.Image, addr, 1, 1, useColor(os.Stdout))
	debugREPL(dbg, mc)
}

func handleWrite(addr int, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped (write)")
	debugger.PrintMem(os.Stdout, mc.Image, addr, 1, 1, useColor(os.Stdout))
	debugREPL(dbg, mc)
}
