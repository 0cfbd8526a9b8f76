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

// Unallocated cell marker. Also the interpreter's end-of-batch signal.
const EMPTY int = -1

const (
	OP_COMPUTE Opcode = 1
	OP_PRINT   Opcode = 2
	OP_STORE   Opcode = 3
	OP_LOAD    Opcode = 4
)

const (
	STATE_NEW        State = 1
	STATE_READY      State = 2
	STATE_RUNNING    State = 3
	STATE_TERMINATED State = 4
)

// Header word offsets from a record's base address
const (
	PCB_PID Field = iota
	PCB_STATE
	PCB_PROGRAM
	PCB_COUNT
	PCB_RESERVED
	PCB_LIMIT
	PCB_CYCLES
	PCB_REGISTER
	PCB_MAXMEM
	PCB_BASE
)

// Header length in words. Opcodes begin at base+PCB_SIZE.
const PCB_SIZE int = 10

// Value written to PCB_RESERVED. Never read back.
const PCB_PLACEHOLDER int = 13

const (
	SIZING_EXACT Sizing = iota
	SIZING_FLAT
)

// First word of a binary image, or'd with the image's Sizing
const BIN_TAG int = 0x50430000

const BIN_TAG_MASK int = 0xFF

const (
	EVENT_COMPUTE Event = iota
	EVENT_PRINT
	EVENT_STORED
	EVENT_STORE_ERROR
	EVENT_LOADED
	EVENT_LOAD_ERROR
)
