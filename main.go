/*
 * probeflash - Main process.
 *
 * Copyright 2026, probeflash contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/probeflash/internal/algorithm"
	"github.com/rcornwell/probeflash/internal/console"
	"github.com/rcornwell/probeflash/internal/flasher"
	"github.com/rcornwell/probeflash/internal/loader"
	"github.com/rcornwell/probeflash/internal/logging"
	"github.com/rcornwell/probeflash/internal/supervise"
	"github.com/rcornwell/probeflash/internal/target"
	"github.com/rcornwell/probeflash/internal/transport"
)

var Logger *slog.Logger

func main() {
	optChip := getopt.StringLong("chip", 0, "", "Chip profile name")
	optChipConfig := getopt.StringLong("chip-config", 0, "targets.conf", "Target description file")
	optChipErase := getopt.BoolLong("chip-erase", 0, "Full-erase before programming")
	optAlwaysStack := getopt.BoolLong("always-print-stacktrace", 0, "Print stack trace even on user interrupt")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optInteractive := getopt.BoolLong("interactive", 0, "Drop into the console instead of supervising")
	optBackend := getopt.StringLong("backend", 0, "", "Registered transport backend")
	optProbe := getopt.StringLong("probe", 0, "", "Backend-specific probe selector")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile io.Writer
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err != nil {
			slog.Error("could not create log file", "path", *optLogFile, "error", err)
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(logging.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, false))
	slog.SetDefault(Logger)

	args := getopt.Args()
	if len(args) != 1 {
		Logger.Error("expected exactly one positional <path> argument")
		os.Exit(1)
	}
	imagePath := args[0]

	if *optChip == "" {
		Logger.Error("--chip is required")
		os.Exit(1)
	}

	chip, err := target.LoadChip(*optChipConfig, *optChip)
	if err != nil {
		Logger.Error("failed to load chip profile", "error", err)
		os.Exit(1)
	}

	chunks, err := loader.LoadFile(imagePath, loader.ELF, 0)
	if err != nil {
		Logger.Error("failed to load image", "path", imagePath, "error", err)
		os.Exit(1)
	}

	probe, err := openProbe(*optBackend, *optProbe)
	if err != nil {
		Logger.Error("failed to open transport", "error", err)
		os.Exit(1)
	}

	if err := program(probe, chip, chunks, *optChipErase); err != nil {
		Logger.Error("programming failed", "error", err)
		os.Exit(1)
	}

	if *optInteractive {
		console.Run(probe)
		return
	}

	outcome, err := supervise.Run(supervise.Options{
		Core:                  probe,
		ImagePath:             imagePath,
		AlwaysPrintStackTrace: *optAlwaysStack,
		Out:                   os.Stdout,
		ResetBeforeRun:        true,
		VectorCatch:           transport.VectorCatchAll,
	})
	if err != nil {
		Logger.Error("supervision loop failed", "error", err)
		os.Exit(1)
	}

	Logger.Info("session ended", "outcome", outcome.String())
}

// program flashes every chunk of the image using the chip's erase and
// program algorithm entry points. A whole-chip erase runs first when
// requested; programming itself always goes through the Program-typed
// session, one page at a time.
func program(probe transport.Probe, chip *target.Target, chunks []loader.Chunk, chipErase bool) error {
	base := flasher.New(probe, chip.Algorithm)

	if chipErase {
		active, err := flasher.Init[flasher.Erase](base, chip.Region, nil, nil)
		if err != nil {
			return err
		}
		if err := flasher.EraseAll(active); err != nil {
			return err
		}
		inactive, err := active.Uninit()
		if err != nil {
			return err
		}
		base = inactive
	}

	active, err := flasher.Init[flasher.Program](base, chip.Region, nil, nil)
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		if err := programChunk(active, chip.Region, chunk); err != nil {
			return err
		}
	}

	_, err = active.Uninit()
	return err
}

func programChunk(active flasher.Active[flasher.Program], region algorithm.FlashRegion, chunk loader.Chunk) error {
	pageSize := region.PageSize
	total := uint32(len(chunk.Data))
	for offset := uint32(0); offset < total; offset += pageSize {
		end := offset + pageSize
		if end > total {
			end = total
		}
		addr := chunk.Address + offset
		if err := flasher.ProgramPage(active, addr, chunk.Data[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

// openProbe connects to a registered transport backend. No backend ships in
// this module: a real deployment imports one via a blank
// import that calls transport.RegisterBackend from its own init function.
func openProbe(backend, selector string) (transport.Probe, error) {
	if backend == "" {
		return nil, errors.New("main: --backend is required to open a transport")
	}
	return transport.Open(backend, selector)
}
