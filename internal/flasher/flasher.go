/*
 * probeflash - Flasher state machine and algorithm invoker
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

// Package flasher drives the flash-algorithm execution engine: it stages an
// algorithm into target RAM, calls its entry points with the right register
// frame, and exposes the erase/program primitives gated by which kind of
// operation is currently active.
//
// Inactive.Init starts a session; Active[O].Uninit ends it. Ownership is
// exclusive for the session's lifetime, enforced here by Go's usual move
// idiom: Init and Uninit consume the receiver by value and return the new
// state, so a caller that keeps using the old handle is a caller bug, not a
// runtime race.
package flasher

import (
	"time"

	"github.com/rcornwell/probeflash/internal/algorithm"
	"github.com/rcornwell/probeflash/internal/transport"
)

// DefaultInvokeTimeout bounds how long callFunctionAndWait will poll
// WaitForCoreHalted before giving up, rather than waiting forever.
const DefaultInvokeTimeout = 10 * time.Second

// session holds everything both flasher states share: the probe, the
// algorithm being operated on, and the invoke timeout. The region is held by
// Active, not here.
type session struct {
	probe   transport.Probe
	algo    algorithm.FlashAlgorithm
	timeout time.Duration
}

// Inactive is a flasher that is not currently driving the target core.
type Inactive struct {
	s session
}

// New wraps a probe and algorithm into an Inactive flasher ready for Init.
func New(probe transport.Probe, algo algorithm.FlashAlgorithm) Inactive {
	return Inactive{s: session{probe: probe, algo: algo, timeout: DefaultInvokeTimeout}}
}

// WithTimeout returns a copy of the flasher using the given invoke timeout
// in place of DefaultInvokeTimeout.
func (i Inactive) WithTimeout(d time.Duration) Inactive {
	i.s.timeout = d
	return i
}

// Active is a flasher session that has successfully called (or skipped, if
// absent) the algorithm's Init entry point for operation O, and owns the
// target core exclusively until Uninit is called.
type Active[O Operation] struct {
	s      session
	region algorithm.FlashRegion
}

// Init halts and resets the target, stages the algorithm into RAM, and — if
// the algorithm defines one — calls its Init entry point with R2 set to O's
// operation code. A nonzero R0 aborts the transition and the half-initialised
// state is discarded.
func Init[O Operation](inactive Inactive, region algorithm.FlashRegion, address *uint32, clock *uint32) (Active[O], error) {
	s := inactive.s
	var op O

	if err := s.probe.ResetAndHalt(time.Second); err != nil {
		return Active[O]{}, err
	}

	if err := s.probe.WriteBlockU32(s.algo.LoadAddress, s.algo.Instructions); err != nil {
		return Active[O]{}, err
	}

	active := Active[O]{s: s, region: region}

	if s.algo.HasPCInit {
		r0 := zeroOr(address)
		r1 := zeroOr(clock)
		opCode := op.Code()
		status, err := active.callFunctionAndWait(s.algo.PCInit, &r0, &r1, &opCode, nil, true)
		if err != nil {
			return Active[O]{}, err
		}
		if status != 0 {
			return Active[O]{}, &InitError{Code: status}
		}
	}

	return active, nil
}

func zeroOr(v *uint32) uint32 {
	if v == nil {
		return 0
	}
	return *v
}

// Uninit calls the algorithm's UnInit entry point, if present, and returns
// the session to Inactive regardless of its result: a nonzero R0 here is
// diagnostic, not fatal, since the operation itself already completed.
func (a Active[O]) Uninit() (Inactive, error) {
	var op O
	var uninitErr error

	if a.s.algo.HasPCUninit {
		opCode := op.Code()
		status, err := a.callFunctionAndWait(a.s.algo.PCUninit, &opCode, nil, nil, nil, false)
		if err != nil {
			return Inactive{s: a.s}, err
		}
		if status != 0 {
			uninitErr = &UninitError{Code: status}
		}
	}

	return Inactive{s: a.s}, uninitErr
}

// callFunction marshals the entry-point register frame and resumes the
// core. Nil operands leave the corresponding register unchanged.
func (a Active[O]) callFunction(pc uint32, r0, r1, r2, r3 *uint32, init bool) error {
	probe := a.s.probe
	algo := a.s.algo

	writes := []struct {
		id    transport.RegisterID
		value *uint32
	}{
		{transport.PC, &pc},
		{transport.R0, r0},
		{transport.R1, r1},
		{transport.R2, r2},
		{transport.R3, r3},
	}
	for _, w := range writes {
		if w.value == nil {
			continue
		}
		if err := probe.WriteCoreReg(w.id, *w.value); err != nil {
			return err
		}
	}

	if init {
		if err := probe.WriteCoreReg(transport.R9, algo.StaticBase); err != nil {
			return err
		}
		if err := probe.WriteCoreReg(transport.SP, algo.BeginStack); err != nil {
			return err
		}
	}

	// Thumb return: the algorithm's epilogue is a breakpoint at its own load
	// address, odd so the core stays in Thumb mode on return.
	if err := probe.WriteCoreReg(transport.LR, algo.LoadAddress|1); err != nil {
		return err
	}

	return probe.Run()
}

// waitForCompletion polls WaitForCoreHalted, treating transport errors as
// "not yet halted", until the core halts or the session's timeout expires.
func (a Active[O]) waitForCompletion() (uint32, error) {
	deadline := time.Now().Add(a.s.timeout)
	for {
		if err := a.s.probe.WaitForCoreHalted(); err == nil {
			return a.s.probe.ReadCoreReg(transport.R0)
		}
		if time.Now().After(deadline) {
			return 0, ErrInvokeTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

func (a Active[O]) callFunctionAndWait(pc uint32, r0, r1, r2, r3 *uint32, init bool) (uint32, error) {
	if err := a.callFunction(pc, r0, r1, r2, r3, init); err != nil {
		return 0, err
	}
	return a.waitForCompletion()
}

// Go generics do not support method specialization: a method declared on
// Active[O] must be valid for every O, so the erase-only and program-only
// primitives below are free functions that take an already-instantiated
// Active[Erase] or Active[Program] as their first argument instead. Trying
// to call EraseAll with an Active[Program] is then a plain type error at
// the call site, which is the closest Go gets to the source's phantom-typed
// ActiveFlasher<Erase>/ActiveFlasher<Program> split.

// EraseAll invokes the algorithm's EraseAll entry point. It requires the
// algorithm to define one.
func EraseAll(a Active[Erase]) error {
	if !a.s.algo.HasPCEraseAll {
		return ErrEraseAllNotSupported
	}
	status, err := a.callFunctionAndWait(a.s.algo.PCEraseAll, nil, nil, nil, nil, false)
	if err != nil {
		return err
	}
	if status != 0 {
		return &EraseAllError{Code: status}
	}
	return nil
}

// EraseSector invokes the algorithm's EraseSector entry point with R0 set to
// address.
func EraseSector(a Active[Erase], address uint32) error {
	status, err := a.callFunctionAndWait(a.s.algo.PCEraseSector, &address, nil, nil, nil, false)
	if err != nil {
		return err
	}
	if status != 0 {
		return &EraseSectorError{Code: status, Address: address}
	}
	return nil
}

// ProgramPage writes bytes to the algorithm's default page buffer and
// invokes ProgramPage with R0=address, R1=len(bytes), R2=BeginData.
func ProgramPage(a Active[Program], address uint32, data []byte) error {
	if err := a.s.probe.WriteBlockU8(a.s.algo.BeginData, data); err != nil {
		return err
	}
	length := uint32(len(data))
	buf := a.s.algo.BeginData
	status, err := a.callFunctionAndWait(a.s.algo.PCProgramPage, &address, &length, &buf, nil, false)
	if err != nil {
		return err
	}
	if status != 0 {
		return &ProgramPageError{Code: status, Address: address}
	}
	return nil
}

// LoadPageBuffer copies bytes into page buffer n without invoking the
// algorithm. Used ahead of StartProgramPageWithBuffer to pipeline uploads
// with in-flight programming. address is carried for signature fidelity
// with the documented primitive but unused: the destination is the page
// buffer itself, addressed by n, not the flash address being targeted.
func LoadPageBuffer(a Active[Program], address uint32, data []byte, n uint32) error {
	_ = address
	if n >= uint32(len(a.s.algo.PageBuffers)) {
		return &InvalidBufferNumberError{N: n, Capacity: uint32(len(a.s.algo.PageBuffers))}
	}
	return a.s.probe.WriteBlockU8(a.s.algo.PageBuffers[n], data)
}

// StartProgramPageWithBuffer begins programming page buffer n at address
// without waiting for completion. The caller must call WaitForCompletion
// before inspecting the result, typically after uploading the next buffer.
func StartProgramPageWithBuffer(a Active[Program], address uint32, n uint32) error {
	if n >= uint32(len(a.s.algo.PageBuffers)) {
		return &InvalidBufferNumberError{N: n, Capacity: uint32(len(a.s.algo.PageBuffers))}
	}
	pageSize := a.region.PageSize
	buf := a.s.algo.PageBuffers[n]
	return a.callFunction(a.s.algo.PCProgramPage, &address, &pageSize, &buf, nil, false)
}

// WaitForCompletion reads back the result of a StartProgramPageWithBuffer
// call. It takes Active[Program] explicitly because, unlike every other
// primitive, the caller chose when to start waiting.
func WaitForCompletion(a Active[Program], address uint32) error {
	status, err := a.waitForCompletion()
	if err != nil {
		return err
	}
	if status != 0 {
		return &ProgramPageError{Code: status, Address: address}
	}
	return nil
}

// ProgramPhrase behaves like ProgramPage but requires address and len(data)
// to be multiples of the algorithm's minimum program unit.
func ProgramPhrase(a Active[Program], address uint32, data []byte) error {
	minUnit := a.s.algo.MinProgramUnit(a.region)
	if address%minUnit != 0 {
		return ErrUnalignedFlashWriteAddress
	}
	if uint32(len(data))%minUnit != 0 {
		return ErrUnalignedPhraseLength
	}

	if err := a.s.probe.WriteBlockU8(a.s.algo.BeginData, data); err != nil {
		return err
	}
	length := uint32(len(data))
	buf := a.s.algo.BeginData
	status, err := a.callFunctionAndWait(a.s.algo.PCProgramPage, &address, &length, &buf, nil, false)
	if err != nil {
		return err
	}
	if status != 0 {
		return &ProgramPhraseError{Code: status, Address: address}
	}
	return nil
}

// GetSectorInfo returns the sector containing address, or false if address
// falls outside the region.
func GetSectorInfo(a Active[Program], address uint32) (algorithm.SectorInfo, bool) {
	if !a.region.Contains(address) {
		return algorithm.SectorInfo{}, false
	}
	return algorithm.SectorInfo{
		BaseAddress: address - (address % a.region.SectorSize),
		EraseWeight: a.region.EraseSectorWeight,
		Size:        a.region.SectorSize,
	}, true
}

// GetPageInfo returns the page containing address, or false if address falls
// outside the region.
func GetPageInfo(a Active[Program], address uint32) (algorithm.PageInfo, bool) {
	if !a.region.Contains(address) {
		return algorithm.PageInfo{}, false
	}
	return algorithm.PageInfo{
		BaseAddress:   address - (address % a.region.PageSize),
		ProgramWeight: a.region.ProgramPageWeight,
		Size:          a.region.PageSize,
	}, true
}

// GetFlashInfo returns whole-bank capability info, or false if address falls
// outside the region.
func GetFlashInfo(a Active[Program], address uint32) (algorithm.FlashInfo, bool) {
	if !a.region.Contains(address) {
		return algorithm.FlashInfo{}, false
	}
	return algorithm.FlashInfo{
		RomStart:     a.region.Start,
		EraseWeight:  a.region.EraseAllWeight,
		CRCSupported: a.s.algo.AnalyzerSupported,
	}, true
}
