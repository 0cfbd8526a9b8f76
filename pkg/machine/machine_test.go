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


package machine_test

import (
	"fmt"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/lassandro/pcbsim/pkg/machine"
)

type testSink struct {
	Lines []string
	PCBs  []machine.PCB
}

func (s *testSink) Begin(pid int) {
	s.Lines = append(s.Lines, fmt.Sprintf("begin %d", pid))
}

func (s *testSink) Event(ev machine.Event) {
	s.Lines = append(s.Lines, ev.String())
}

func (s *testSink) End(pcb machine.PCB) {
	s.Lines = append(s.Lines, fmt.Sprintf("end %d", pcb.ProcessID))
	s.PCBs = append(s.PCBs, pcb)
}

type testCase struct {
	Name      string
	Capacity  int
	Sizing    machine.Sizing
	Start     int
	Runs      int
	Processes []machine.Process
	Trace     []string
	Output    []machine.PCB
	Memory    map[int]int
}

func testMachineSuccess(t *testing.T, test *testCase) {
	img := machine.NewImage(test.Capacity)

	if _, errs := machine.Encode(img, test.Processes, test.Sizing); len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if test.Runs == 0 {
		test.Runs = 1
	}

	var sink testSink

	for i := 0; i < test.Runs; i++ {
		machine.Run(img, test.Start, &sink, test.Sizing)
	}

	if !slices.Equal(sink.Lines, test.Trace) {
		t.Errorf(
			"Trace mismatch\nwant:%q (test.Trace)\nhave:%q",
			test.Trace,
			sink.Lines,
		)
	}

	if len(sink.PCBs) < len(test.Output) {
		t.Fatalf(
			"Terminated process count mismatch\nwant:%d\nhave:%d",
			len(test.Output),
			len(sink.PCBs),
		)
	}

	// Compare against the final snapshots only
	have := sink.PCBs[len(sink.PCBs)-len(test.Output):]

	for i, want := range test.Output {
		if have[i] != want {
			t.Errorf(
				"PCB mismatch\nwant:%+v (test.Output[%d])\nhave:%+v",
				want,
				i,
				have[i],
			)
		}
	}

	for addr, want := range test.Memory {
		if have := img.Read(addr); have != want {
			t.Errorf(
				"Memory value mismatch\nwant:%d (test.Memory[%d])\nhave:%d",
				want,
				addr,
				have,
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

func TestCompute(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:     "Compute Print",
			Capacity: 50,
			Processes: []machine.Process{
				{ID: 7, MaxMemory: 10, Instructions: []machine.Instruction{
					machine.Compute{Iterations: 3, Cycles: 5},
					machine.Print{Cycles: 2},
				}},
			},
			Trace: []string{"begin 7", "compute", "print", "end 7"},
			Output: []machine.PCB{{
				ProcessID:       7,
				State:           machine.STATE_TERMINATED,
				ProgramCounter:  2,
				InstructionBase: 10,
				DataBase:        12,
				MemoryLimit:     10,
				CPUCyclesUsed:   7,
				RegisterValue:   0,
				MaxMemoryNeeded: 10,
				MainMemoryBase:  0,
			}},
			Memory: map[int]int{
				0: 7,
				1: int(machine.STATE_TERMINATED),
				2: 2,
				6: 7,
				7: 0,
				9: 0,
			},
		},
		{
			Name:     "Iterations Ignored",
			Capacity: 20,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Compute{Iterations: 1000, Cycles: 1},
				}},
			},
			Trace:  []string{"begin 1", "compute", "end 1"},
			Memory: map[int]int{2: 1, 6: 1},
		},
	})
}

func TestStore(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:     "Store Out Of Range",
			Capacity: 50,
			Processes: []machine.Process{
				{ID: 2, Instructions: []machine.Instruction{
					machine.Store{Value: 9, Address: 1000},
				}},
			},
			Trace: []string{"begin 2", "store error!", "end 2"},
			Memory: map[int]int{
				2:  1, // program counter
				6:  1, // cycles
				13: machine.EMPTY,
				49: machine.EMPTY,
			},
		},
		{
			Name:     "Store Negative Address",
			Capacity: 20,
			Processes: []machine.Process{
				{ID: 2, Instructions: []machine.Instruction{
					machine.Store{Value: 9, Address: -1},
				}},
			},
			Trace:  []string{"begin 2", "store error!", "end 2"},
			Memory: map[int]int{2: 1, 6: 1, 19: machine.EMPTY},
		},
		{
			Name:     "Store Then Load Across Processes",
			Capacity: 50,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Store{Value: 42, Address: 45},
				}},
				{ID: 2, Instructions: []machine.Instruction{
					machine.Load{Address: 45},
				}},
			},
			Trace: []string{
				"begin 1", "stored", "end 1",
				"begin 2", "loaded", "end 2",
			},
			Memory: map[int]int{
				45:     42,
				13 + 7: 42, // register of process 2
			},
		},
		{
			Name:     "Store Into Own Header",
			Capacity: 30,
			Processes: []machine.Process{
				{ID: 3, Instructions: []machine.Instruction{
					machine.Store{Value: 100, Address: 6},
					machine.Print{Cycles: 3},
				}},
			},
			Trace: []string{"begin 3", "stored", "print", "end 3"},
			// 100 overwrites cycles, then +1 for the store, +3 for the print
			Memory: map[int]int{2: 2, 6: 104},
		},
		{
			Name:     "Store Over Next Header",
			Capacity: 40,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Store{Value: 99, Address: 13},
				}},
				{ID: 2, Instructions: []machine.Instruction{
					machine.Print{Cycles: 1},
				}},
			},
			Trace: []string{
				"begin 1", "stored", "end 1",
				"begin 99", "print", "end 99",
			},
			Memory: map[int]int{13: 99, 13 + 9: 13},
		},
		{
			Name:     "Store Over Own Code",
			Capacity: 40,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Store{Value: 9, Address: 11},
					machine.Print{Cycles: 2},
				}},
				{ID: 2, Instructions: []machine.Instruction{
					machine.Print{Cycles: 5},
				}},
			},
			// Opcode 9 is unknown and skipped, the next record is still found
			Trace: []string{
				"begin 1", "stored", "end 1",
				"begin 2", "print", "end 2",
			},
			Memory: map[int]int{
				2:      1,
				6:      1,
				11:     9,
				15 + 6: 5,
			},
		},
		{
			Name:     "Store Into Later Code",
			Capacity: 40,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Store{Value: int(machine.OP_COMPUTE), Address: 23},
				}},
				{ID: 2, Instructions: []machine.Instruction{
					machine.Print{Cycles: 4},
				}},
				{ID: 3, Instructions: []machine.Instruction{
					machine.Print{Cycles: 2},
				}},
			},
			// Process 2 now computes, taking its cycles from the word after
			// its record. Process 3 still begins where it was placed.
			Trace: []string{
				"begin 1", "stored", "end 1",
				"begin 2", "compute", "end 2",
				"begin 3", "print", "end 3",
			},
			Memory: map[int]int{
				23:     int(machine.OP_COMPUTE),
				13 + 2: 1,
				13 + 6: 3,
				25 + 1: int(machine.STATE_TERMINATED),
				25 + 6: 2,
			},
		},
		{
			Name:     "Store Into Free Space",
			Capacity: 40,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Store{Value: 5, Address: 13},
				}},
			},
			// The value after the record is not a complete record
			Trace:  []string{"begin 1", "stored", "end 1"},
			Memory: map[int]int{13: 5, 1: int(machine.STATE_TERMINATED)},
		},
	})
}

func TestLoad(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:     "Load Own Header",
			Capacity: 20,
			Processes: []machine.Process{
				{ID: 8, Instructions: []machine.Instruction{
					machine.Load{Address: 0},
				}},
			},
			Trace:  []string{"begin 8", "loaded", "end 8"},
			Memory: map[int]int{7: 8, 6: 1, 2: 1},
		},
		{
			Name:     "Load Empty Cell",
			Capacity: 20,
			Processes: []machine.Process{
				{ID: 8, Instructions: []machine.Instruction{
					machine.Load{Address: 19},
				}},
			},
			Trace:  []string{"begin 8", "loaded", "end 8"},
			Memory: map[int]int{7: machine.EMPTY},
		},
		{
			Name:     "Load Out Of Range",
			Capacity: 20,
			Processes: []machine.Process{
				{ID: 8, Instructions: []machine.Instruction{
					machine.Load{Address: 20},
					machine.Load{Address: -5},
				}},
			},
			Trace:  []string{"begin 8", "load error!", "load error!", "end 8"},
			Memory: map[int]int{7: 0, 6: 2, 2: 2},
		},
	})
}

func TestCycleAccounting(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:     "Mixed Instructions",
			Capacity: 64,
			Processes: []machine.Process{
				{ID: 4, MaxMemory: 30, Instructions: []machine.Instruction{
					machine.Compute{Iterations: 2, Cycles: 10},
					machine.Store{Value: 1, Address: 60},
					machine.Print{Cycles: 4},
					machine.Load{Address: 60},
					machine.Store{Value: 1, Address: 600},
					machine.Load{Address: 600},
				}},
			},
			Trace: []string{
				"begin 4", "compute", "stored", "print", "loaded",
				"store error!", "load error!", "end 4",
			},
			Output: []machine.PCB{{
				ProcessID:       4,
				State:           machine.STATE_TERMINATED,
				ProgramCounter:  6,
				InstructionBase: 10,
				DataBase:        16,
				MemoryLimit:     30,
				CPUCyclesUsed:   18,
				RegisterValue:   1,
				MaxMemoryNeeded: 30,
				MainMemoryBase:  0,
			}},
		},
	})
}

func TestLifecycle(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:     "Rerun Accumulates",
			Capacity: 50,
			Runs:     2,
			Processes: []machine.Process{
				{ID: 7, MaxMemory: 10, Instructions: []machine.Instruction{
					machine.Compute{Iterations: 3, Cycles: 5},
					machine.Print{Cycles: 2},
				}},
			},
			Trace: []string{
				"begin 7", "compute", "print", "end 7",
				"begin 7", "compute", "print", "end 7",
			},
			Memory: map[int]int{1: int(machine.STATE_TERMINATED), 2: 4, 6: 14},
		},
		{
			Name:     "Start At Second Record",
			Capacity: 50,
			Start:    13,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Compute{Iterations: 1, Cycles: 1},
				}},
				{ID: 2, Instructions: []machine.Instruction{
					machine.Print{Cycles: 3},
				}},
			},
			Trace: []string{"begin 2", "print", "end 2"},
			Memory: map[int]int{
				1:      int(machine.STATE_NEW),
				13 + 1: int(machine.STATE_TERMINATED),
			},
		},
		{
			Name:     "Start Out Of Range",
			Capacity: 20,
			Start:    -3,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Print{Cycles: 3},
				}},
			},
			Trace:  []string{},
			Memory: map[int]int{1: int(machine.STATE_NEW)},
		},
		{
			Name:     "No Instructions",
			Capacity: 30,
			Processes: []machine.Process{
				{ID: 5},
				{ID: 6, Instructions: []machine.Instruction{
					machine.Print{Cycles: 1},
				}},
			},
			Trace: []string{"begin 5", "end 5", "begin 6", "print", "end 6"},
			Memory: map[int]int{
				1:      int(machine.STATE_TERMINATED),
				10 + 1: int(machine.STATE_TERMINATED),
			},
		},
		{
			Name:     "Flat Sizing",
			Capacity: 40,
			Sizing:   machine.SIZING_FLAT,
			Processes: []machine.Process{
				{ID: 1, Instructions: []machine.Instruction{
					machine.Print{Cycles: 2},
					machine.Load{Address: 0},
				}},
				{ID: 2, Instructions: []machine.Instruction{
					machine.Print{Cycles: 3},
				}},
			},
			Trace: []string{
				"begin 1", "print", "loaded", "end 1",
				"begin 2", "print", "end 2",
			},
			Memory: map[int]int{6: 3, 7: 1, 16 + 6: 3},
		},
	})
}

func TestInsufficientMemoryRun(t *testing.T) {
	img := machine.NewImage(10)

	_, errs := machine.Encode(img, []machine.Process{
		{ID: 4, MaxMemory: 10, Instructions: []machine.Instruction{
			machine.Compute{Iterations: 3, Cycles: 5},
			machine.Print{Cycles: 2},
		}},
	}, machine.SIZING_EXACT)

	if len(errs) != 1 {
		t.Fatalf("Error count mismatch\nwant:1\nhave:%d", len(errs))
	}

	for addr, value := range img.Cells {
		if value != machine.EMPTY {
			t.Fatalf("Memory unexpectedly changed\nwant:-1 ([%d])\nhave:%d", addr, value)
		}
	}

	var sink testSink
	machine.Run(img, 0, &sink, machine.SIZING_EXACT)

	if len(sink.Lines) != 0 {
		t.Errorf("Unexpected trace\nwant:[]\nhave:%q", sink.Lines)
	}
}

func TestTruncatedRecord(t *testing.T) {
	img := machine.NewImage(15)

	// A header claiming more instructions than the image holds
	img.Write(0, 1)
	img.SetField(0, machine.PCB_COUNT, 50)

	var sink testSink
	var mc machine.Machine

	mc.Image = img
	mc.Sink = &sink
	mc.Run(0)

	if !mc.Halted() {
		t.Fatal("Machine did not halt")
	}

	if len(sink.Lines) != 0 {
		t.Errorf("Unexpected trace\nwant:[]\nhave:%q", sink.Lines)
	}

	if img.Field(0, machine.PCB_STATE) != machine.EMPTY {
		t.Errorf("Truncated record was started")
	}
}

type testDebugger struct {
	Steps  []int
	Reads  []int
	Writes []int
}

func (dbg *testDebugger) Step(mc *machine.Machine) {
	addr, ok := mc.Next()

	if !ok {
		addr = -1
	}

	dbg.Steps = append(dbg.Steps, addr)
}

func (dbg *testDebugger) Read(addr int, mc *machine.Machine) {
	dbg.Reads = append(dbg.Reads, addr)
}

func (dbg *testDebugger) Write(addr int, mc *machine.Machine) {
	dbg.Writes = append(dbg.Writes, addr)
}

func TestDebuggerHooks(t *testing.T) {
	img := machine.NewImage(50)

	machine.Encode(img, []machine.Process{
		{ID: 1, Instructions: []machine.Instruction{
			machine.Store{Value: 3, Address: 40},
			machine.Load{Address: 40},
			machine.Load{Address: 400},
		}},
		{ID: 2, Instructions: []machine.Instruction{
			machine.Print{Cycles: 1},
		}},
	}, machine.SIZING_EXACT)

	var dbg testDebugger
	mc := machine.Machine{Image: img, Debugger: &dbg}

	mc.Reset(0)

	if addr, ok := mc.Next(); !ok || addr != 10 {
		t.Fatalf("Next mismatch\nwant:10\nhave:%d (%v)", addr, ok)
	}

	for !mc.Halted() {
		mc.Step()
	}

	// Process 1 occupies 10+3+4 words, process 2 begins at 17
	wantSteps := []int{11, 12, 27, -1}

	if !slices.Equal(dbg.Steps, wantSteps) {
		t.Errorf("Step hook mismatch\nwant:%v\nhave:%v", wantSteps, dbg.Steps)
	}

	if !slices.Equal(dbg.Reads, []int{40}) {
		t.Errorf("Read hook mismatch\nwant:[40]\nhave:%v", dbg.Reads)
	}

	if !slices.Equal(dbg.Writes, []int{40}) {
		t.Errorf("Write hook mismatch\nwant:[40]\nhave:%v", dbg.Writes)
	}
}
