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
	"bufio"
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/lassandro/pcbsim/pkg/debugger"
	"github.com/lassandro/pcbsim/pkg/descriptor"
	"github.com/lassandro/pcbsim/pkg/machine"
	"github.com/lassandro/pcbsim/pkg/trace"
)

var helpvar bool
var debugvar bool
var echovar bool
var binvar bool
var outvar string
var startvar int
var sizingvar string
var memvizvar string
var colorvar string

var shouldexit bool

const usage = "pcbsim [-debug] [-echo] [-bin] [-out file] [-start addr] " +
	"[-sizing exact|flat] [-memviz file] [-color auto|always|never] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(
		&echovar, "echo", false,
		"Writes the trace to stdout as well as to the output file",
	)
	flag.BoolVar(
		&binvar, "bin", false,
		"Reads the input as a binary memory image (see pcbsim-asm) "+
			"instead of process descriptors",
	)
	flag.StringVar(&outvar, "out", "output.txt", "Trace output file")
	flag.IntVar(&startvar, "start", 0, "Address of the first record to run")
	flag.StringVar(
		&sizingvar, "sizing", "exact",
		"Record sizing: 'exact' reserves each instruction's parameters, "+
			"'flat' reserves two parameter words per instruction. Binary "+
			"images carry their own sizing",
	)
	flag.StringVar(
		&memvizvar, "memviz", "",
		"Writes a graphviz dot file of the terminated process control blocks",
	)
	flag.StringVar(
		&colorvar, "color", "auto",
		"Colours terminal output: 'auto', 'always' or 'never'",
	)
	flag.Parse()
}

func flagSet(name string) bool {
	set := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})

	return set
}

func parseSizing(s string) (machine.Sizing, error) {
	switch strings.ToLower(s) {
	case "exact":
		return machine.SIZING_EXACT, nil
	case "flat":
		return machine.SIZING_FLAT, nil
	}

	return 0, fmt.Errorf("Invalid sizing '%s'", s)
}

func useColor(file *os.File) bool {
	switch colorvar {
	case "always":
		return true
	case "never":
		return false
	}

	return isTerminal(file)
}

// Logs a descriptor error. Errors from a seekable file are shown with the
// offending line underlined.
func logBatchError(err error, input io.Reader) {
	var tokenErr descriptor.TokenError
	seeker, seekable := input.(io.ReadSeeker)

	if !errors.As(err, &tokenErr) || !seekable || input == os.Stdin {
		log.Println(err)
		return
	}

	cursor := tokenErr.GetPosition()

	if cursor.Column == 0 {
		log.Println(err)
		return
	}

	lineByte := cursor.Byte - int64(cursor.Column-1)

	if _, err := seeker.Seek(lineByte, io.SeekStart); err != nil {
		panic(err)
	}

	line, _ := bufio.NewReader(seeker).ReadString('\n')

	underlinefmt := fmt.Sprintf(
		"%% %ds%s",
		cursor.Column,
		strings.Repeat("~", int(cursor.Size)-1),
	)

	log.Printf(
		"%s\n%s\n\033[31m%s\033[0m",
		err,
		strings.TrimRight(line, "\n"),
		fmt.Sprintf(underlinefmt, "^"),
	)
}

// Placement tables sit next to the image with the extension .pcbdb
func placementFile(filename string) string {
	base := filepath.Base(filename)

	return filepath.Join(
		filepath.Dir(filename),
		strings.TrimSuffix(base, filepath.Ext(base))+".pcbdb",
	)
}

func loadPlacements(filename string) []machine.Placement {
	file, err := os.Open(filename)

	if err != nil {
		log.Println("Error loading placement file")
		log.Println(err)
		return nil
	}

	defer file.Close()

	var placed []machine.Placement

	if err := gob.NewDecoder(file).Decode(&placed); err != nil {
		log.Println("Error loading placement file")
		log.Println(err)
		return nil
	}

	return placed
}

func pcbsim() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	sizing, err := parseSizing(sizingvar)

	if err != nil {
		log.Println(err)
		return 1
	}

	args := flag.Args()

	var input io.Reader
	var infile string

	if stat, err := os.Stdin.Stat(); err == nil && len(args) == 0 &&
		stat.Mode()&os.ModeCharDevice == 0 {
		if debugvar {
			log.Println("The debugger reads commands from stdin, pass a filename")
			return 1
		}

		input = os.Stdin
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		input = file
		infile = args[0]
	}

	var img *machine.Image
	var placed []machine.Placement

	if binvar {
		img = &machine.Image{}

		tagged, err := img.LoadBin(input)

		if err != nil {
			log.Println(err)
			return 1
		}

		if flagSet("sizing") && tagged != sizing {
			log.Printf(
				"Image was encoded with '%s' sizing, not '%s'\n", tagged, sizing,
			)
			return 1
		}

		sizing = tagged

		if debugvar && infile != "" {
			placed = loadPlacements(placementFile(infile))
		}
	} else {
		batch, err := descriptor.ParseBatch(input)

		if err != nil {
			logBatchError(err, input)
			return 1
		}

		img = machine.NewImage(batch.Capacity)

		var errs []error
		placed, errs = machine.Encode(img, batch.Processes, sizing)

		// Processes that did not fit are reported, the rest still run
		for _, err := range errs {
			log.Println(err)
		}
	}

	output, err := os.Create(outvar)

	if err != nil {
		log.Println("Error creating output file")
		log.Println(err)
		return 1
	}

	defer output.Close()

	writers := []*trace.Writer{trace.NewWriter(output)}

	if echovar {
		console := trace.NewWriter(os.Stdout)
		console.Color = useColor(os.Stdout)
		writers = append(writers, console)
	}

	var sinks trace.Multi

	for _, tw := range writers {
		tw.Dump(img)
		sinks = append(sinks, tw)
	}

	var collector trace.Collector

	if memvizvar != "" {
		sinks = append(sinks, &collector)
	}

	mc := machine.Machine{Image: img, Sink: sinks, Sizing: sizing}
	mc.Reset(startvar)

	if debugvar {
		var dbg debugger.Debugger
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		dbg.Placements = placed
		mc.Debugger = &dbg

		c := make(chan os.Signal, 1)
		defer close(c)

		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)

		go func() {
			for range c {
				fmt.Println()
				dbg.Break = true
			}
		}()

		fmt.Printf("Loaded %d words, %d processes\n", img.Len(), len(placed))
		debugREPL(&dbg, &mc)
	}

	for !shouldexit && !mc.Halted() {
		mc.Step()
	}

	status := 0

	for _, tw := range writers {
		if err := tw.Flush(); err != nil {
			log.Println("Error writing trace")
			log.Println(err)
			status = 1
		}
	}

	if memvizvar != "" {
		if err := writeGraph(memvizvar, collector.Terminated); err != nil {
			log.Println("Error writing memviz graph")
			log.Println(err)
			status = 1
		}
	}

	return status
}

func main() {
	os.Exit(pcbsim())
}
