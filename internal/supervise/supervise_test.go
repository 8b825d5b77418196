/*
 * probeflash - Supervision loop tests
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

package supervise

import (
	"bytes"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/rcornwell/probeflash/internal/transport"
)

// stubCore is a package-local transport.Probe double whose Status sequence
// is scripted in advance, in the same spirit as the flasher package's
// mockProbe.
type stubCore struct {
	statuses  []transport.CoreStatus
	call      int
	haltCalls int
}

func (s *stubCore) nextStatus() transport.CoreStatus {
	if s.call >= len(s.statuses) {
		return s.statuses[len(s.statuses)-1]
	}
	st := s.statuses[s.call]
	s.call++
	return st
}

func (s *stubCore) WriteBlockU32(uint32, []uint32) error                 { return nil }
func (s *stubCore) WriteBlockU8(uint32, []byte) error                    { return nil }
func (s *stubCore) ReadBlockU8(uint32, int) ([]byte, error)              { return nil, nil }
func (s *stubCore) WriteCoreReg(transport.RegisterID, uint32) error      { return nil }
func (s *stubCore) ReadCoreReg(transport.RegisterID) (uint32, error)     { return 0, nil }
func (s *stubCore) Run() error                                          { return nil }
func (s *stubCore) WaitForCoreHalted() error                             { return nil }
func (s *stubCore) ResetAndHalt(time.Duration) error                     { return nil }
func (s *stubCore) EnableVectorCatch(transport.VectorCatchCondition) error { return nil }

func (s *stubCore) Halt(time.Duration) (transport.CoreStatus, error) {
	s.haltCalls++
	return transport.CoreStatus{Running: false}, nil
}

func (s *stubCore) Status() (transport.CoreStatus, error) {
	return s.nextStatus(), nil
}

// S5: supervision loop with a stub core that never halts; a SIGINT after
// 50ms should yield exactly one Halt(1s) call and outcome "user-halted".
func TestRunUserInterrupt(t *testing.T) {
	core := &stubCore{statuses: []transport.CoreStatus{{Running: true}}}
	var out bytes.Buffer

	done := make(chan struct {
		outcome Outcome
		err     error
	}, 1)
	go func() {
		outcome, err := Run(Options{Core: core, Out: &out})
		done <- struct {
			outcome Outcome
			err     error
		}{outcome, err}
	}()

	time.Sleep(50 * time.Millisecond)
	self, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("find self process: %v", err)
	}
	if err := self.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("signal self: %v", err)
	}

	select {
	case result := <-done:
		if result.err != nil {
			t.Fatalf("Run returned error: %v", result.err)
		}
		if result.outcome != UserHalted {
			t.Errorf("outcome = %v, want UserHalted", result.outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after SIGINT")
	}

	if core.haltCalls != 1 {
		t.Errorf("haltCalls = %d, want 1", core.haltCalls)
	}
}

// S6: stub core reports Running twice then Halted; Run should return
// "target-halted".
func TestRunTargetHalt(t *testing.T) {
	core := &stubCore{statuses: []transport.CoreStatus{
		{Running: true},
		{Running: true},
		{Running: false, Reason: transport.HaltBreakpoint},
	}}
	var out bytes.Buffer

	outcome, err := Run(Options{Core: core, Out: &out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != TargetHalted {
		t.Errorf("outcome = %v, want TargetHalted", outcome)
	}
	if core.haltCalls != 0 {
		t.Errorf("haltCalls = %d, want 0 (loop exited on its own)", core.haltCalls)
	}
}
