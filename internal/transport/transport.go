/*
 * probeflash - Debug transport façade
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

// Package transport defines the façade a debug probe backend must satisfy.
// probeflash never talks to a probe directly; every register write, memory
// write, run/halt transition, and vector-catch arm goes through this
// interface so the flasher, invoker and supervision loop stay probe-agnostic.
package transport

import (
	"errors"
	"fmt"
	"time"
)

// RegisterID names one of the handful of core registers the flash-algorithm
// invoker cares about. The concrete numeric encoding is architecture and
// probe specific, which is exactly why callers never see it.
type RegisterID int

const (
	PC RegisterID = iota
	R0
	R1
	R2
	R3
	R9
	SP
	LR
)

func (r RegisterID) String() string {
	switch r {
	case PC:
		return "PC"
	case R0:
		return "R0"
	case R1:
		return "R1"
	case R2:
		return "R2"
	case R3:
		return "R3"
	case R9:
		return "R9"
	case SP:
		return "SP"
	case LR:
		return "LR"
	default:
		return "R?"
	}
}

// HaltReason records why the core most recently stopped.
type HaltReason int

const (
	HaltUnknown HaltReason = iota
	HaltRequest
	HaltBreakpoint
	HaltWatchpoint
	HaltException
)

// CoreStatus is either Running or Halted with a reason.
type CoreStatus struct {
	Running bool
	Reason  HaltReason
}

// VectorCatchCondition is a bitset of exception vectors that should halt the
// core when taken.
type VectorCatchCondition uint32

const (
	VectorCatchNone      VectorCatchCondition = 0
	VectorCatchHardFault VectorCatchCondition = 1 << 0
	VectorCatchCoreReset VectorCatchCondition = 1 << 1
)

// VectorCatchAll arms every known vector.
const VectorCatchAll VectorCatchCondition = ^VectorCatchCondition(0)

var (
	// ErrNotHalted is returned by WaitForCoreHalted while the core is still
	// running; callers poll again rather than treating it as fatal.
	ErrNotHalted = errors.New("transport: core not halted")
	// ErrHaltTimeout is returned by Halt when the core does not stop within
	// the requested timeout.
	ErrHaltTimeout = errors.New("transport: halt timed out")
)

// Probe is the façade over a single attached debug probe session. All
// methods operate on whichever core the session was opened against; there is
// no re-entrancy and no concurrent use from more than one goroutine.
type Probe interface {
	// WriteBlockU32 stages a block of 32-bit words starting at addr. Used to
	// load algorithm instructions and word-aligned page buffers.
	WriteBlockU32(addr uint32, words []uint32) error
	// WriteBlockU8 stages a block of bytes starting at addr.
	WriteBlockU8(addr uint32, data []byte) error
	// ReadBlockU8 reads length bytes starting at addr, used by the
	// stack-trace renderer to walk the target's stack.
	ReadBlockU8(addr uint32, length int) ([]byte, error)

	// WriteCoreReg writes a single core register. Register writes observed
	// before a Run() call are guaranteed visible to the algorithm once it
	// starts executing.
	WriteCoreReg(id RegisterID, value uint32) error
	// ReadCoreReg reads a single core register.
	ReadCoreReg(id RegisterID) (uint32, error)

	// Run resumes the core.
	Run() error
	// Halt requests the core stop within timeout, returning its status once
	// stopped.
	Halt(timeout time.Duration) (CoreStatus, error)
	// WaitForCoreHalted returns nil once the core has halted for any reason.
	// It returns ErrNotHalted (never a transport-layer error) while the core
	// is still running, so callers can always treat a non-nil, non-ErrNotHalted
	// error as transient and keep polling.
	WaitForCoreHalted() error
	// Status reports the core's current run state without forcing a halt.
	Status() (CoreStatus, error)

	// ResetAndHalt resets the target and leaves the core halted.
	ResetAndHalt(timeout time.Duration) error
	// EnableVectorCatch arms the given exception vectors to halt the core
	// when taken.
	EnableVectorCatch(conditions VectorCatchCondition) error
}

// OpenFunc connects to a probe named by selector (backend-specific: a serial
// number, a VID:PID pair, whatever the backend understands) and returns a
// session against it.
type OpenFunc func(selector string) (Probe, error)

var backends = map[string]OpenFunc{}

// ErrUnknownBackend is returned by Open when no backend was registered under
// the requested name.
var ErrUnknownBackend = errors.New("transport: unknown backend")

// RegisterBackend makes a probe backend available under name, for an init
// function in a backend package to call. No backend ships in this module;
// CMSIS-DAP, J-Link and ST-Link drivers are out of scope.
func RegisterBackend(name string, open OpenFunc) {
	backends[name] = open
}

// Open dials the named backend. Backend is empty only when none has been
// registered by any imported package.
func Open(backend, selector string) (Probe, error) {
	open, ok := backends[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	return open(selector)
}
