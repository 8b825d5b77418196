/*
 * probeflash - Flasher tests
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

package flasher

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rcornwell/probeflash/internal/algorithm"
	"github.com/rcornwell/probeflash/internal/transport"
)

// mockProbe is a package-local test double for transport.Probe: it keeps the
// last value written to each register, a snapshot of the registers at every
// Run, and every memory write in order. WaitForCoreHalted overwrites R0 with
// r0OnHalt, so the R0 passed into a call is read from regsAtRun.
type mockProbe struct {
	regs       map[transport.RegisterID]uint32
	regsAtRun  []map[transport.RegisterID]uint32
	writtenU32 []u32Write
	writtenU8  []u8Write
	runCount   int
	r0OnHalt   uint32
	haltErrsBeforeOK int
}

type u32Write struct {
	addr  uint32
	words []uint32
}

type u8Write struct {
	addr uint32
	data []byte
}

func newMockProbe() *mockProbe {
	return &mockProbe{regs: map[transport.RegisterID]uint32{}}
}

func (m *mockProbe) WriteBlockU32(addr uint32, words []uint32) error {
	cp := make([]uint32, len(words))
	copy(cp, words)
	m.writtenU32 = append(m.writtenU32, u32Write{addr, cp})
	return nil
}

func (m *mockProbe) WriteBlockU8(addr uint32, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.writtenU8 = append(m.writtenU8, u8Write{addr, cp})
	return nil
}

func (m *mockProbe) ReadBlockU8(addr uint32, length int) ([]byte, error) {
	return make([]byte, length), nil
}

func (m *mockProbe) WriteCoreReg(id transport.RegisterID, value uint32) error {
	m.regs[id] = value
	return nil
}

func (m *mockProbe) ReadCoreReg(id transport.RegisterID) (uint32, error) {
	return m.regs[id], nil
}

func (m *mockProbe) Run() error {
	m.runCount++
	snap := make(map[transport.RegisterID]uint32, len(m.regs))
	for id, v := range m.regs {
		snap[id] = v
	}
	m.regsAtRun = append(m.regsAtRun, snap)
	return nil
}

func (m *mockProbe) Halt(time.Duration) (transport.CoreStatus, error) {
	return transport.CoreStatus{Running: false}, nil
}

func (m *mockProbe) WaitForCoreHalted() error {
	if m.haltErrsBeforeOK > 0 {
		m.haltErrsBeforeOK--
		return errors.New("mock: transient transport error")
	}
	m.regs[transport.R0] = m.r0OnHalt
	return nil
}

func (m *mockProbe) Status() (transport.CoreStatus, error) {
	return transport.CoreStatus{Running: false}, nil
}

func (m *mockProbe) ResetAndHalt(time.Duration) error { return nil }

func (m *mockProbe) EnableVectorCatch(transport.VectorCatchCondition) error { return nil }

func testAlgorithm() algorithm.FlashAlgorithm {
	return algorithm.FlashAlgorithm{
		LoadAddress:   0x2000_0000,
		Instructions:  []uint32{0x1, 0x2, 0x3, 0x4},
		PCInit:        0x2000_0080,
		HasPCInit:     true,
		PCUninit:      0x2000_0090,
		HasPCUninit:   true,
		PCEraseAll:    0x2000_0100,
		HasPCEraseAll: true,
		PCEraseSector: 0x2000_0110,
		PCProgramPage: 0x2000_0120,
		StaticBase:    0x2000_1000,
		BeginStack:    0x2000_2000,
		BeginData:     0x2000_1800,
	}
}

func testRegion() algorithm.FlashRegion {
	return algorithm.FlashRegion{Start: 0x0800_0000, End: 0x0810_0000, SectorSize: 0x800, PageSize: 0x100}
}

// S1: Init+EraseAll success.
func TestInitEraseAllSuccess(t *testing.T) {
	probe := newMockProbe()
	algo := testAlgorithm()

	inactive := New(probe, algo)
	active, err := Init[Erase](inactive, testRegion(), nil, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if got := probe.writtenU32[0]; got.addr != algo.LoadAddress || !bytes.Equal(u32ToBytes(got.words), u32ToBytes(algo.Instructions)) {
		t.Fatalf("instructions not staged at load address: %+v", got)
	}

	if probe.regs[transport.PC] != algo.PCInit {
		t.Errorf("PC = 0x%x, want 0x%x", probe.regs[transport.PC], algo.PCInit)
	}
	if probe.regs[transport.R0] != 0 {
		t.Errorf("R0 = %d, want 0", probe.regs[transport.R0])
	}
	if probe.regs[transport.R2] != (Erase{}).Code() {
		t.Errorf("R2 = %d, want Erase code %d", probe.regs[transport.R2], (Erase{}).Code())
	}
	if probe.regs[transport.R9] != algo.StaticBase {
		t.Errorf("R9 = 0x%x, want 0x%x", probe.regs[transport.R9], algo.StaticBase)
	}
	if probe.regs[transport.SP] != algo.BeginStack {
		t.Errorf("SP = 0x%x, want 0x%x", probe.regs[transport.SP], algo.BeginStack)
	}
	if probe.regs[transport.LR] != algo.LoadAddress|1 {
		t.Errorf("LR = 0x%x, want 0x%x", probe.regs[transport.LR], algo.LoadAddress|1)
	}

	if err := EraseAll(active); err != nil {
		t.Fatalf("EraseAll: %v", err)
	}
	if probe.regs[transport.PC] != algo.PCEraseAll {
		t.Errorf("PC = 0x%x, want 0x%x (erase_all)", probe.regs[transport.PC], algo.PCEraseAll)
	}
	if probe.runCount != 2 {
		t.Errorf("runCount = %d, want 2", probe.runCount)
	}

	if _, err := active.Uninit(); err != nil {
		t.Fatalf("Uninit: %v", err)
	}
	if probe.regs[transport.PC] != algo.PCUninit {
		t.Errorf("PC = 0x%x, want 0x%x (uninit)", probe.regs[transport.PC], algo.PCUninit)
	}
	uninitRegs := probe.regsAtRun[len(probe.regsAtRun)-1]
	if uninitRegs[transport.R0] != (Erase{}).Code() {
		t.Errorf("uninit R0 = %d, want Erase code", uninitRegs[transport.R0])
	}
}

// S2: EraseAll unsupported.
func TestEraseAllUnsupported(t *testing.T) {
	probe := newMockProbe()
	algo := testAlgorithm()
	algo.HasPCEraseAll = false

	active, err := Init[Erase](New(probe, algo), testRegion(), nil, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	before := probe.runCount

	err = EraseAll(active)
	if !errors.Is(err, ErrEraseAllNotSupported) {
		t.Fatalf("EraseAll error = %v, want ErrEraseAllNotSupported", err)
	}
	if probe.runCount != before {
		t.Errorf("runCount changed from %d to %d, want no transport call", before, probe.runCount)
	}
}

// S3: ProgramPage fault.
func TestProgramPageFault(t *testing.T) {
	probe := newMockProbe()
	algo := testAlgorithm()

	active, err := Init[Program](New(probe, algo), testRegion(), nil, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	probe.r0OnHalt = 0xDEAD
	data := bytes.Repeat([]byte{0xAA}, 256)
	err = ProgramPage(active, 0x0800_1000, data)

	var ppErr *ProgramPageError
	if !errors.As(err, &ppErr) || ppErr.Code != 0xDEAD || ppErr.Address != 0x0800_1000 {
		t.Fatalf("ProgramPage error = %v, want ProgramPageError{0xDEAD, 0x0800_1000}", err)
	}

	count := 0
	for _, w := range probe.writtenU8 {
		if w.addr == algo.BeginData {
			count++
		}
	}
	if count != 1 {
		t.Errorf("begin_data written %d times, want 1", count)
	}
}

// S4: phrase alignment.
func TestProgramPhraseAlignment(t *testing.T) {
	probe := newMockProbe()
	algo := testAlgorithm()
	algo.HasMinProgramLength = true
	algo.MinProgramLength = 8

	active, err := Init[Program](New(probe, algo), testRegion(), nil, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := ProgramPhrase(active, 0x0800_1004, make([]byte, 16)); !errors.Is(err, ErrUnalignedFlashWriteAddress) {
		t.Errorf("unaligned address error = %v, want ErrUnalignedFlashWriteAddress", err)
	}
	if err := ProgramPhrase(active, 0x0800_1000, make([]byte, 12)); !errors.Is(err, ErrUnalignedPhraseLength) {
		t.Errorf("unaligned length error = %v, want ErrUnalignedPhraseLength", err)
	}
}

func TestLoadPageBufferInvalidIndex(t *testing.T) {
	probe := newMockProbe()
	algo := testAlgorithm()
	algo.PageBuffers = []uint32{0x2000_3000, 0x2000_3100}

	active, err := Init[Program](New(probe, algo), testRegion(), nil, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	err = LoadPageBuffer(active, 0x0800_1000, []byte{1, 2, 3}, 2)
	var bufErr *InvalidBufferNumberError
	if !errors.As(err, &bufErr) || bufErr.N != 2 || bufErr.Capacity != 2 {
		t.Fatalf("LoadPageBuffer(n=2) error = %v, want InvalidBufferNumberError{2,2}", err)
	}
	if len(probe.writtenU8) != 0 {
		t.Errorf("writtenU8 = %v, want no writes", probe.writtenU8)
	}

	if err := LoadPageBuffer(active, 0x0800_1000, []byte{1, 2, 3}, 1); err != nil {
		t.Fatalf("LoadPageBuffer(n=1): %v", err)
	}
}

func TestInitSkippedWithoutPCInit(t *testing.T) {
	probe := newMockProbe()
	algo := testAlgorithm()
	algo.HasPCInit = false

	_, err := Init[Program](New(probe, algo), testRegion(), nil, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if probe.runCount != 0 {
		t.Errorf("runCount = %d, want 0 (no init entry point)", probe.runCount)
	}
}

func u32ToBytes(words []uint32) []byte {
	b := make([]byte, 0, 4*len(words))
	for _, w := range words {
		b = append(b, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return b
}
