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
	"fmt"

	"github.com/lassandro/pcbsim/pkg/machine"
)

type Cursor struct {
	Line   int
	Column int
	Byte   int64
	Size   int64
}

type Token struct {
	Position Cursor
	Value    string
}

// Batch is everything read from one input: the memory capacity and the
// processes to place in it, in input order.
type Batch struct {
	Capacity  int
	Processes []machine.Process
}

type TokenError interface {
	GetPosition() Cursor
}

type InvalidLiteralError struct {
	Position Cursor
	Received string
}

func (err *InvalidLiteralError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidLiteralError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid numeric literal '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnexpectedEOFError struct {
	Position Cursor
	Required string
}

func (err *UnexpectedEOFError) GetPosition() Cursor {
	return err.Position
}

func (err *UnexpectedEOFError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unexpected end of input\n\twant:%s\n\thave:EOF",
		err.Position.Line,
		err.Position.Column,
		err.Required,
	)
}

type InvalidOpcodeError struct {
	Position Cursor
	Received int
}

func (err *InvalidOpcodeError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidOpcodeError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid opcode\n\twant:%d-%d\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		machine.OP_COMPUTE,
		machine.OP_LOAD,
		err.Received,
	)
}

type InvalidValueError struct {
	Position Cursor
	Field    string
	Received int
}

func (err *InvalidValueError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidValueError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid %s\n\twant:>= 0\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		err.Field,
		err.Received,
	)
}

type DuplicateProcessError struct {
	Position Cursor
	Received int
}

func (err *DuplicateProcessError) GetPosition() Cursor {
	return err.Position
}

func (err *DuplicateProcessError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Redeclaration of process %d",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnexpectedTokenError struct {
	Position Cursor
	Received string
}

func (err *UnexpectedTokenError) GetPosition() Cursor {
	return err.Position
}

func (err *UnexpectedTokenError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unexpected token '%s' after last process",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}
