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

// Encode lays procs out in img in order, one record per process. The image is
// reset first. Processes that do not fit, or that carry a nil instruction, are
// skipped and reported in errs; the rest of the batch is still placed.
func Encode(img *Image, procs []Process, sizing Sizing) (placed []Placement, errs []error) {
	img.Reset()

	placed = make([]Placement, 0, len(procs))
	errs = make([]error, 0)

	index := 0

	for _, proc := range procs {
		count := len(proc.Instructions)
		params := 0
		valid := true

		for i, instruction := range proc.Instructions {
			if instruction == nil {
				errs = append(errs, &InvalidInstructionError{proc.ID, i})
				valid = false
				break
			}

			params += instruction.Opcode().Arity()
		}

		if !valid {
			continue
		}

		required := sizing.RecordSize(count, params)

		if index+required > img.Len() {
			errs = append(errs, &InsufficientMemoryError{
				ProcessID: proc.ID,
				Required:  required,
				Available: img.Len() - index,
			})
			continue
		}

		img.SetField(index, PCB_PID, proc.ID)
		img.SetField(index, PCB_STATE, int(STATE_NEW))
		img.SetField(index, PCB_PROGRAM, 0)
		img.SetField(index, PCB_COUNT, count)
		img.SetField(index, PCB_RESERVED, PCB_PLACEHOLDER)
		img.SetField(index, PCB_LIMIT, proc.MaxMemory)
		img.SetField(index, PCB_CYCLES, 0)
		img.SetField(index, PCB_REGISTER, 0)
		img.SetField(index, PCB_MAXMEM, proc.MaxMemory)
		img.SetField(index, PCB_BASE, index)

		code := index + PCB_SIZE
		data := code + count

		for _, instruction := range proc.Instructions {
			img.Write(code, int(instruction.Opcode()))
			code++
		}

		for _, instruction := range proc.Instructions {
			for _, param := range instruction.Params() {
				img.Write(data, param)
				data++
			}
		}

		placed = append(placed, Placement{proc.ID, index, required})
		index += required
	}

	return placed, errs
}
