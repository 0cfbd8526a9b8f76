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
	"fmt"
)

type InsufficientMemoryError struct {
	ProcessID int
	Required  int
	Available int
}

func (err *InsufficientMemoryError) Error() string {
	return fmt.Sprintf(
		"Not enough memory to allocate process %d\n\twant:%d\n\thave:%d",
		err.ProcessID,
		err.Required,
		err.Available,
	)
}

type InvalidInstructionError struct {
	ProcessID int
	Index     int
}

func (err *InvalidInstructionError) Error() string {
	return fmt.Sprintf(
		"Process %d: missing instruction at index %d",
		err.ProcessID,
		err.Index,
	)
}
