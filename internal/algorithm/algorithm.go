/*
 * probeflash - Flash algorithm descriptor
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

// Package algorithm holds the static description of a flash algorithm and
// the flash region it programs. Neither type has behavior of its own; the
// flasher package drives them.
package algorithm

import "fmt"

// FlashAlgorithm is the position-independent blob a chip vendor supplies to
// erase and program its on-chip flash. It is immutable for the lifetime of a
// target session.
type FlashAlgorithm struct {
	LoadAddress uint32   // RAM address instructions are staged at.
	Instructions []uint32 // Position-independent code, 32-bit words.

	PCInit         uint32 // Used only when HasPCInit is set (Init is optional).
	HasPCInit      bool
	PCUninit       uint32
	HasPCUninit    bool
	PCEraseAll     uint32
	HasPCEraseAll  bool
	PCProgramPage  uint32 // Required.
	PCEraseSector  uint32 // Required.

	StaticBase uint32 // Initial R9 (PIC data base).
	BeginStack uint32 // Initial SP.
	BeginData  uint32 // Default page buffer base.

	PageBuffers []uint32 // >=2 entries enables double buffering.

	MinProgramLength    uint32 // Used only when HasMinProgramLength is set; otherwise region.PageSize is used.
	HasMinProgramLength bool

	AnalyzerSupported bool
	AnalyzerAddress   uint32
}

// FlashRegion describes one flash bank's geometry and the relative cost of
// the three operations a planner might want to weigh against each other.
type FlashRegion struct {
	Name    string
	Start   uint32
	End     uint32 // Exclusive.
	SectorSize uint32
	PageSize   uint32

	EraseAllWeight    float64
	EraseSectorWeight float64
	ProgramPageWeight float64
}

// Contains reports whether addr falls within the region.
func (r FlashRegion) Contains(addr uint32) bool {
	return addr >= r.Start && addr < r.End
}

// SectorInfo describes the sector containing a queried address.
type SectorInfo struct {
	BaseAddress uint32
	EraseWeight float64
	Size        uint32
}

// PageInfo describes the page containing a queried address.
type PageInfo struct {
	BaseAddress   uint32
	ProgramWeight float64
	Size          uint32
}

// FlashInfo summarises whole-bank capabilities.
type FlashInfo struct {
	RomStart     uint32
	EraseWeight  float64
	CRCSupported bool
}

// New validates algo against region and returns it unchanged on success.
// The caller is expected to treat the returned value as immutable.
func New(algo FlashAlgorithm, region FlashRegion) (FlashAlgorithm, error) {
	if algo.PCProgramPage == 0 {
		return FlashAlgorithm{}, fmt.Errorf("algorithm: pc_program_page is required")
	}
	if algo.PCEraseSector == 0 {
		return FlashAlgorithm{}, fmt.Errorf("algorithm: pc_erase_sector is required")
	}

	instrBytes := uint32(4 * len(algo.Instructions))
	if algo.BeginStack <= algo.LoadAddress+instrBytes {
		return FlashAlgorithm{}, fmt.Errorf("algorithm: begin_stack 0x%x does not leave room for %d instruction words loaded at 0x%x",
			algo.BeginStack, len(algo.Instructions), algo.LoadAddress)
	}

	instrEnd := algo.LoadAddress + instrBytes
	if overlapsRange(algo.BeginData, algo.BeginData+region.PageSize, algo.LoadAddress, instrEnd) {
		return FlashAlgorithm{}, fmt.Errorf("algorithm: begin_data 0x%x overlaps the instruction region", algo.BeginData)
	}

	for i, base := range algo.PageBuffers {
		end := base + region.PageSize
		if overlapsRange(base, end, algo.LoadAddress, instrEnd) {
			return FlashAlgorithm{}, fmt.Errorf("algorithm: page_buffers[%d] 0x%x overlaps the instruction region", i, base)
		}
		for j, other := range algo.PageBuffers {
			if i == j {
				continue
			}
			if overlapsRange(base, end, other, other+region.PageSize) {
				return FlashAlgorithm{}, fmt.Errorf("algorithm: page_buffers[%d] 0x%x overlaps page_buffers[%d]", i, base, j)
			}
		}
	}

	return algo, nil
}

func overlapsRange(aStart, aEnd, bStart, bEnd uint32) bool {
	return aStart < bEnd && bStart < aEnd
}

// MinProgramUnit returns the algorithm's minimum programmable unit, falling
// back to the region's page size when the algorithm does not specify one.
func (a FlashAlgorithm) MinProgramUnit(region FlashRegion) uint32 {
	if a.HasMinProgramLength {
		return a.MinProgramLength
	}
	return region.PageSize
}
