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


package descriptor

import (
	"bufio"
	"io"
	"math"
	"unicode"

	"golang.org/x/exp/slices"

	"github.com/lassandro/pcbsim/pkg/encoding"
	"github.com/lassandro/pcbsim/pkg/machine"
)

type parser struct {
	tokens []Token
	next   int
	end    Cursor
}

// Splits input into whitespace separated words. A ';' comments out the rest
// of its line.
func tokenize(input io.Reader) ([]Token, Cursor, error) {
	var tokens = make([]Token, 0)
	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	// A whole batch may sit on one line
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), math.MaxInt32)

	for scanner.Scan() {
		line := scanner.Text()
		start := -1

		flush := func(column int) {
			if start < 0 {
				return
			}

			tokens = append(tokens, Token{
				Position: Cursor{
					Line:   cursor.Line,
					Column: start + 1,
					Byte:   cursor.Byte + int64(start),
					Size:   int64(column - start),
				},
				Value: line[start:column],
			})
			start = -1
		}

		for column, char := range line {
			if char == ';' {
				flush(column)
				break
			}

			if unicode.IsSpace(char) {
				flush(column)
			} else if start < 0 {
				start = column
			}
		}

		if start >= 0 {
			flush(len(line))
		}

		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		return nil, cursor, err
	}

	return tokens, cursor, nil
}

// Capacity hint for count items, bounded by the tokens left to back them
func (p *parser) capacity(count int) int {
	if remaining := len(p.tokens) - p.next; count > remaining {
		return remaining
	}

	return count
}

func (p *parser) word(required string) (int, Cursor, error) {
	if p.next >= len(p.tokens) {
		return 0, p.end, &UnexpectedEOFError{p.end, required}
	}

	token := p.tokens[p.next]
	p.next++

	value, err := encoding.DecodeWord(token.Value)

	if err != nil {
		return 0, token.Position, &InvalidLiteralError{token.Position, token.Value}
	}

	return value, token.Position, nil
}

// Like word, but rejects negative values
func (p *parser) count(required string) (int, error) {
	value, position, err := p.word(required)

	if err != nil {
		return 0, err
	}

	if value < 0 {
		return 0, &InvalidValueError{position, required, value}
	}

	return value, nil
}

func (p *parser) instruction() (machine.Instruction, error) {
	value, position, err := p.word("opcode")

	if err != nil {
		return nil, err
	}

	params := make([]int, 0, 2)

	for i := 0; i < machine.Opcode(value).Arity(); i++ {
		param, _, err := p.word(machine.Opcode(value).String() + " parameter")

		if err != nil {
			return nil, err
		}

		params = append(params, param)
	}

	switch machine.Opcode(value) {
	case machine.OP_COMPUTE:
		return machine.Compute{Iterations: params[0], Cycles: params[1]}, nil
	case machine.OP_PRINT:
		return machine.Print{Cycles: params[0]}, nil
	case machine.OP_STORE:
		return machine.Store{Value: params[0], Address: params[1]}, nil
	case machine.OP_LOAD:
		return machine.Load{Address: params[0]}, nil
	}

	return nil, &InvalidOpcodeError{position, value}
}

func (p *parser) process() (machine.Process, Cursor, error) {
	var proc machine.Process
	var position Cursor
	var err error

	if proc.ID, position, err = p.word("process id"); err != nil {
		return proc, position, err
	}

	if proc.MaxMemory, _, err = p.word("max memory"); err != nil {
		return proc, position, err
	}

	count, err := p.count("instruction count")

	if err != nil {
		return proc, position, err
	}

	proc.Instructions = make([]machine.Instruction, 0, p.capacity(count))

	for i := 0; i < count; i++ {
		instruction, err := p.instruction()

		if err != nil {
			return proc, position, err
		}

		proc.Instructions = append(proc.Instructions, instruction)
	}

	return proc, position, nil
}

// ParseBatch reads a memory capacity, a process count and that many process
// descriptors from input. Each descriptor is a process id, its maximum memory,
// an instruction count and the instructions, each an opcode followed by its
// parameters.
func ParseBatch(input io.Reader) (batch Batch, err error) {
	var p parser

	if p.tokens, p.end, err = tokenize(input); err != nil {
		return batch, err
	}

	if batch.Capacity, err = p.count("memory size"); err != nil {
		return batch, err
	}

	count, err := p.count("process count")

	if err != nil {
		return batch, err
	}

	batch.Processes = make([]machine.Process, 0, p.capacity(count))
	ids := make([]int, 0, p.capacity(count))

	for i := 0; i < count; i++ {
		proc, position, err := p.process()

		if err != nil {
			return batch, err
		}

		if slices.Contains(ids, proc.ID) {
			return batch, &DuplicateProcessError{position, proc.ID}
		}

		ids = append(ids, proc.ID)
		batch.Processes = append(batch.Processes, proc)
	}

	if p.next < len(p.tokens) {
		token := p.tokens[p.next]
		return batch, &UnexpectedTokenError{token.Position, token.Value}
	}

	return batch, nil
}
