/*
 * probeflash - Stack trace renderer
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

// Package stacktrace renders the frames an unwind.DebugInfo produces into
// the line format probe-rs style tools use on the terminal.
package stacktrace

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rcornwell/probeflash/internal/transport"
	"github.com/rcornwell/probeflash/internal/unwind"
)

// Render opens path's debug info, reads the program counter from core, asks
// loader to unwind from there, and writes one "Frame N: ..." block per
// frame to w. A failure to open the ELF is logged and treated as "nothing to
// print", matching the source's behavior, not an error returned to the
// caller.
func Render(w io.Writer, loader unwind.Loader, core transport.Probe, path string) error {
	if loader == nil {
		return nil
	}

	info, err := loader.FromFile(path)
	if err != nil {
		slog.Error("no debug info found", "path", path, "error", err)
		return nil
	}

	pc, err := core.ReadCoreReg(transport.PC)
	if err != nil {
		return err
	}

	frames, err := info.Unwind(core, uint64(pc))
	if err != nil {
		return err
	}

	for i, frame := range frames {
		writeFrame(w, i, frame)
	}
	return nil
}

func writeFrame(w io.Writer, i int, frame unwind.Frame) {
	fmt.Fprintf(w, "Frame %d: %s @ 0x%x", i, frame.FunctionName, frame.PC)
	if frame.IsInlined {
		fmt.Fprint(w, " inline")
	}
	fmt.Fprintln(w)

	if !frame.HasLocation {
		return
	}
	loc := frame.Location
	if !loc.HasDirectory && !loc.HasFile {
		return
	}

	fmt.Fprint(w, "       ")
	if loc.HasDirectory {
		fmt.Fprint(w, loc.Directory)
	}
	if loc.HasFile {
		fmt.Fprintf(w, "/%s", loc.File)
		if loc.HasLine {
			fmt.Fprintf(w, ":%d", loc.Line)
			switch loc.Column {
			case unwind.ColumnLeftEdge:
				fmt.Fprint(w, ":1")
			case unwind.ColumnNumber:
				fmt.Fprintf(w, ":%d", loc.ColumnNumber)
			}
		}
	}
	fmt.Fprintln(w)
}
