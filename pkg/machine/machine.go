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

// Run interprets every record in img from start until the batch ends.
func Run(img *Image, start int, sink Sink, sizing Sizing) {
	mc := Machine{Image: img, Sink: sink, Sizing: sizing}
	mc.Run(start)
}

// Positions the machine at start with no record in progress. Record
// boundaries are found from the image as it stands when the next Step or
// Next call is made.
func (mc *Machine) Reset(start int) {
	mc.start = start
	mc.planned = false
	mc.bases = mc.bases[:0]
	mc.slot = 0
	mc.halted = false
	mc.rec = record{}
}

// Walks the record chain from start. Stores made during the run cannot move
// a boundary found here.
func (mc *Machine) plan() {
	mc.bases = mc.bases[:0]

	for base := mc.start; ; {
		size, ok := mc.recordSize(base)

		if !ok {
			break
		}

		mc.bases = append(mc.bases, base)
		base += size
	}

	mc.slot = 0
	mc.planned = true
}

func (mc *Machine) Run(start int) {
	mc.Reset(start)

	for !mc.halted {
		mc.Step()
	}
}

func (mc *Machine) Halted() bool {
	return mc.halted
}

// Next returns the address of the opcode the following Step will execute.
func (mc *Machine) Next() (addr int, ok bool) {
	if mc.halted {
		return 0, false
	}

	if mc.rec.active {
		return mc.rec.base + PCB_SIZE + mc.rec.index, true
	}

	if !mc.planned {
		mc.plan()
	}

	if mc.slot >= len(mc.bases) {
		return 0, false
	}

	return mc.bases[mc.slot] + PCB_SIZE, true
}

// Current returns the base address of the record being executed.
func (mc *Machine) Current() (base int, ok bool) {
	return mc.rec.base, mc.rec.active
}

// Size of the record at base, or false when no complete record starts there.
func (mc *Machine) recordSize(base int) (int, bool) {
	img := mc.Image

	if !img.InBounds(base) || img.Read(base) == EMPTY {
		return 0, false
	}

	if base+PCB_SIZE > img.Len() {
		return 0, false
	}

	count := img.Field(base, PCB_COUNT)
	code := base + PCB_SIZE

	if count < 0 || code+count > img.Len() {
		return 0, false
	}

	params := 0

	for i := 0; i < count; i++ {
		params += Opcode(img.Read(code + i)).Arity()
	}

	size := mc.Sizing.RecordSize(count, params)

	if base+size > img.Len() || code+count+params > img.Len() {
		return 0, false
	}

	return size, true
}

func (mc *Machine) begin() bool {
	if !mc.planned {
		mc.plan()
	}

	if mc.slot >= len(mc.bases) {
		mc.halted = true
		return false
	}

	img := mc.Image
	base := mc.bases[mc.slot]
	count := img.Field(base, PCB_COUNT)

	// The header may have been rewritten since the boundaries were found
	if img.Read(base) == EMPTY || count < 0 || base+PCB_SIZE+count > img.Len() {
		mc.halted = true
		return false
	}

	mc.rec = record{
		base:   base,
		count:  count,
		param:  base + PCB_SIZE + count,
		active: true,
	}

	img.SetField(base, PCB_STATE, int(STATE_RUNNING))

	if mc.Sink != nil {
		mc.Sink.Begin(img.Field(base, PCB_PID))
	}

	return true
}

func (mc *Machine) end() {
	base := mc.rec.base
	mc.Image.SetField(base, PCB_STATE, int(STATE_TERMINATED))

	if mc.Sink != nil {
		pcb := mc.Image.PCB(base)
		pcb.DataBase = base + PCB_SIZE + mc.rec.count
		mc.Sink.End(pcb)
	}

	mc.slot++
	mc.rec = record{}
}

// Parameter words past the end of the image read as EMPTY. This only happens
// when a Store has rewritten the running record's opcodes.
func (mc *Machine) param() int {
	value := EMPTY

	if mc.Image.InBounds(mc.rec.param) {
		value = mc.Image.Read(mc.rec.param)
	}

	mc.rec.param++

	return value
}

func (mc *Machine) emit(ev Event) {
	if mc.Sink != nil {
		mc.Sink.Event(ev)
	}
}

// Step executes one instruction, beginning and ending records around it as
// needed. Records without instructions are begun and ended in passing.
func (mc *Machine) Step() {
	for !mc.halted && !mc.rec.active {
		if !mc.begin() {
			return
		}

		if mc.rec.count == 0 {
			mc.end()
		}
	}

	if mc.halted {
		return
	}

	img := mc.Image
	base := mc.rec.base
	opcode := Opcode(img.Read(base + PCB_SIZE + mc.rec.index))

	mc.rec.index++

	switch opcode {
	case OP_COMPUTE:
		_ = mc.param() // iterations
		cycles := mc.param()

		mc.emit(EVENT_COMPUTE)
		img.AddField(base, PCB_CYCLES, cycles)
		img.AddField(base, PCB_PROGRAM, 1)

	case OP_PRINT:
		cycles := mc.param()

		mc.emit(EVENT_PRINT)
		img.AddField(base, PCB_CYCLES, cycles)
		img.AddField(base, PCB_PROGRAM, 1)

	case OP_STORE:
		value := mc.param()
		addr := mc.param()

		if img.InBounds(addr) {
			img.Write(addr, value)
			mc.emit(EVENT_STORED)

			if mc.Debugger != nil {
				mc.Debugger.Write(addr, mc)
			}
		} else {
			mc.emit(EVENT_STORE_ERROR)
		}

		img.AddField(base, PCB_CYCLES, 1)
		img.AddField(base, PCB_PROGRAM, 1)

	case OP_LOAD:
		addr := mc.param()

		if img.InBounds(addr) {
			img.SetField(base, PCB_REGISTER, img.Read(addr))
			mc.emit(EVENT_LOADED)

			if mc.Debugger != nil {
				mc.Debugger.Read(addr, mc)
			}
		} else {
			mc.emit(EVENT_LOAD_ERROR)
		}

		img.AddField(base, PCB_CYCLES, 1)
		img.AddField(base, PCB_PROGRAM, 1)

	default:
		// Unknown opcodes are skipped without cost
	}

	if mc.rec.index >= mc.rec.count {
		mc.end()
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}
}
