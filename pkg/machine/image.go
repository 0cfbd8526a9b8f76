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

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

func NewImage(capacity int) *Image {
	if capacity < 0 {
		capacity = 0
	}

	img := &Image{Cells: make([]int, capacity)}
	img.Reset()

	return img
}

// Marks every cell unallocated
func (img *Image) Reset() {
	for i := range img.Cells {
		img.Cells[i] = EMPTY
	}
}

func (img *Image) Len() int {
	return len(img.Cells)
}

func (img *Image) InBounds(addr int) bool {
	return addr >= 0 && addr < len(img.Cells)
}

func (img *Image) Read(addr int) int {
	return img.Cells[addr]
}

func (img *Image) Write(addr int, value int) {
	img.Cells[addr] = value
}

func (img *Image) Field(base int, field Field) int {
	return img.Cells[base+int(field)]
}

func (img *Image) SetField(base int, field Field, value int) {
	img.Cells[base+int(field)] = value
}

func (img *Image) AddField(base int, field Field, delta int) {
	img.Cells[base+int(field)] += delta
}

// PCB reads the header at base. The caller guarantees the header fits.
func (img *Image) PCB(base int) PCB {
	count := img.Field(base, PCB_COUNT)

	return PCB{
		ProcessID:       img.Field(base, PCB_PID),
		State:           State(img.Field(base, PCB_STATE)),
		ProgramCounter:  img.Field(base, PCB_PROGRAM),
		InstructionBase: base + PCB_SIZE,
		DataBase:        base + PCB_SIZE + count,
		MemoryLimit:     img.Field(base, PCB_LIMIT),
		CPUCyclesUsed:   img.Field(base, PCB_CYCLES),
		RegisterValue:   img.Field(base, PCB_REGISTER),
		MaxMemoryNeeded: img.Field(base, PCB_MAXMEM),
		MainMemoryBase:  base,
	}
}

// Replaces the image with big-endian 32-bit words read until EOF and
// returns the Sizing the image was encoded with. The first word is the tag
// written by WriteBin; the capacity becomes the number of words after it.
func (img *Image) LoadBin(reader io.Reader) (Sizing, error) {
	img.Cells = img.Cells[:0]

	scratch := make([]byte, 4)
	tagged := false

	var sizing Sizing

	for {
		n, err := io.ReadFull(reader, scratch)

		if err == io.EOF {
			break
		} else if err == io.ErrUnexpectedEOF {
			return sizing, errors.New("Error reading binary: truncated word")
		} else if err != nil {
			return sizing, err
		} else if n != 4 {
			return sizing, errors.New("Error reading binary")
		}

		word := int(int32(binary.BigEndian.Uint32(scratch)))

		if tagged {
			img.Cells = append(img.Cells, word)
			continue
		}

		if word&^BIN_TAG_MASK != BIN_TAG {
			return sizing, errors.New("Error reading binary: not a pcbsim image")
		}

		sizing = Sizing(word & BIN_TAG_MASK)

		if sizing != SIZING_EXACT && sizing != SIZING_FLAT {
			return sizing, fmt.Errorf(
				"Error reading binary: unknown sizing %d", int(sizing),
			)
		}

		tagged = true
	}

	if !tagged {
		return sizing, errors.New("Error reading binary: missing image tag")
	}

	return sizing, nil
}

// Writes the tag for sizing followed by every cell as a big-endian 32-bit
// word.
func (img *Image) WriteBin(writer io.Writer, sizing Sizing) error {
	words := make([]int32, len(img.Cells)+1)
	words[0] = int32(BIN_TAG | int(sizing))

	for i, value := range img.Cells {
		words[i+1] = int32(value)
	}

	return binary.Write(writer, binary.BigEndian, words)
}
