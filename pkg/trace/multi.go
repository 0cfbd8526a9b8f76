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


package trace

import (
	"github.com/lassandro/pcbsim/pkg/machine"
)

// Multi sends every trace call to each of its sinks in order.
type Multi []machine.Sink

func (m Multi) Begin(pid int) {
	for _, sink := range m {
		sink.Begin(pid)
	}
}

func (m Multi) Event(ev machine.Event) {
	for _, sink := range m {
		sink.Event(ev)
	}
}

func (m Multi) End(pcb machine.PCB) {
	for _, sink := range m {
		sink.End(pcb)
	}
}

// Collector keeps the trace in memory.
type Collector struct {
	Started    []int
	Events     []machine.Event
	Terminated []machine.PCB
}

func (c *Collector) Begin(pid int) {
	c.Started = append(c.Started, pid)
}

func (c *Collector) Event(ev machine.Event) {
	c.Events = append(c.Events, ev)
}

func (c *Collector) End(pcb machine.PCB) {
	c.Terminated = append(c.Terminated, pcb)
}
