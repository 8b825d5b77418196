/*
 * probeflash - Debug-info unwinder contract
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

// Package unwind defines the contract the stack-trace renderer drives. DWARF
// evaluation itself is out of scope for this module; only
// the frame shape the renderer prints is defined here.
package unwind

import "github.com/rcornwell/probeflash/internal/transport"

// ColumnKind distinguishes a known source column from "left edge of the
// line", which DWARF represents as column 0 and conventionally prints as 1.
type ColumnKind int

const (
	ColumnUnknown ColumnKind = iota
	ColumnLeftEdge
	ColumnNumber
)

// SourceLocation is the source-level position for a frame, with every
// component optional: a frame may know only a function name and PC.
type SourceLocation struct {
	HasDirectory bool
	Directory    string
	HasFile      bool
	File         string
	HasLine      bool
	Line         int
	Column       ColumnKind
	ColumnNumber int
}

// Frame is one entry in an unwound call stack.
type Frame struct {
	FunctionName string
	PC           uint64
	IsInlined    bool
	HasLocation  bool
	Location     SourceLocation
}

// DebugInfo is a loaded source of unwinding information for one ELF image.
type DebugInfo interface {
	// Unwind produces frames starting at pc, using core to read the target's
	// saved registers and stack memory as needed.
	Unwind(core transport.Probe, pc uint64) ([]Frame, error)
}

// Loader opens debug info for a path, mirroring the external collaborator's
// from_file constructor.
type Loader interface {
	FromFile(path string) (DebugInfo, error)
}
