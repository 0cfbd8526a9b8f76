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
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

var termRestore unix.Termios

func enterCbreakTerm() error {
	if err := termios.Tcgetattr(os.Stdin.Fd(), &termRestore); err != nil {
		return err
	}

	termstate := termRestore
	termios.Cfmakecbreak(&termstate)
	termstate.Lflag &^= unix.ECHO

	return termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &termstate)
}

func exitCbreakTerm() {
	termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &termRestore)
}

func isTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}

// Falls back to 80 when the width can't be queried.
func termColumns(file *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(file.Fd()), unix.TIOCGWINSZ)

	if err != nil || ws.Col == 0 {
		return 80
	}

	return int(ws.Col)
}
