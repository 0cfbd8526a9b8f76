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
	"path/filepath"
	"strings"

	"github.com/lassandro/pcbsim/pkg/descriptor"
	"github.com/lassandro/pcbsim/pkg/machine"
)

var helpvar bool
var debugvar bool
var outvar string
var sizingvar string

const usage = "pcbsim-asm [-debug] [-sizing exact|flat] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to write the placement table used by the "+
			"debugger. The table will use the output filename with "+
			"extension '.pcbdb'",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.StringVar(
		&sizingvar, "sizing", "exact",
		"Record sizing policy, either 'exact' or 'flat'",
	)
	flag.Parse()
}

func withExt(filename string, ext string) string {
	base := filepath.Base(filename)

	return filepath.Join(
		filepath.Dir(filename),
		strings.TrimSuffix(base, filepath.Ext(base))+ext,
	)
}

func logBatchError(err error, input io.ReadSeeker) {
	var tokenErr descriptor.TokenError

	if !errors.As(err, &tokenErr) || input == os.Stdin {
		log.Println(err)
		return
	}

	cursor := tokenErr.GetPosition()

	if cursor.Column == 0 {
		log.Println(err)
		return
	}

	if _, err := input.Seek(
		cursor.Byte-int64(cursor.Column-1), io.SeekStart,
	); err != nil {
		panic(err)
	}

	line, _ := bufio.NewReader(input).ReadString('\n')

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

func pcbsim_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	var sizing machine.Sizing

	switch sizingvar {
	case "exact":
		sizing = machine.SIZING_EXACT
	case "flat":
		sizing = machine.SIZING_FLAT
	default:
		log.Printf("Unknown sizing policy '%s'\n", sizingvar)
		return 1
	}

	args := flag.Args()

	var input io.ReadSeeker

	if stat, err := os.Stdin.Stat(); err == nil && len(args) == 0 &&
		stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m")

		if outvar == "" {
			outvar = "out.bin"
		}
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

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid batch file", filename)
			return 1
		}

		input = file
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

		if outvar == "" {
			outvar = withExt(filename, ".bin")
		}
	}

	batch, err := descriptor.ParseBatch(input)

	if err != nil {
		logBatchError(err, input)
		return 1
	}

	img := machine.NewImage(batch.Capacity)
	placed, errs := machine.Encode(img, batch.Processes, sizing)

	for _, err := range errs {
		log.Println(err)
	}

	{
		file, err := os.Create(outvar)

		if err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			return 1
		}

		writer := bufio.NewWriter(file)

		if err := img.WriteBin(writer, sizing); err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			file.Close()
			return 1
		}

		if err := writer.Flush(); err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			file.Close()
			return 1
		}

		file.Close()
	}

	if debugvar {
		file, err := os.Create(withExt(outvar, ".pcbdb"))

		if err != nil {
			log.Println("Error creating placement table")
			log.Println(err)
			return 1
		}

		defer file.Close()

		if err := gob.NewEncoder(file).Encode(placed); err != nil {
			log.Println("Error writing placement table")
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(pcbsim_asm())
}
