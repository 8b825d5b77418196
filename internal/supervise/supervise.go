/*
 * probeflash - Post-flash supervision loop
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

// Package supervise runs the loop that owns a target's core after a fresh
// image has been downloaded: draining RTT, watching for a halt, and
// responding to an operator-raised interrupt by halting the core gracefully.
package supervise

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rcornwell/probeflash/internal/rtt"
	"github.com/rcornwell/probeflash/internal/stacktrace"
	"github.com/rcornwell/probeflash/internal/transport"
	"github.com/rcornwell/probeflash/internal/unwind"
)

const (
	busyPollInterval = time.Millisecond
	idlePollInterval = 100 * time.Millisecond
	exitHaltTimeout  = time.Second
)

// Outcome distinguishes why Run returned.
type Outcome int

const (
	// TargetHalted means the core stopped on its own (breakpoint, fault,
	// vector-catch) and the stack trace, if any, has already been rendered.
	TargetHalted Outcome = iota
	// UserHalted means a SIGINT was observed and the core was halted in
	// response.
	UserHalted
)

func (o Outcome) String() string {
	if o == UserHalted {
		return "user-halted"
	}
	return "target-halted"
}

// Options configures one supervision run.
type Options struct {
	Core                  transport.Probe
	Attacher              rtt.Attacher
	UnwindLoader          unwind.Loader
	ImagePath             string
	AlwaysPrintStackTrace bool
	Out                   io.Writer
	ResetBeforeRun        bool
	VectorCatch           transport.VectorCatchCondition
}

// Run downloads-and-runs preconditions (when ResetBeforeRun is set), then
// owns core until it halts on its own or the process receives SIGINT.
func Run(opts Options) (Outcome, error) {
	if opts.ResetBeforeRun {
		if err := opts.Core.ResetAndHalt(100 * time.Millisecond); err != nil {
			return TargetHalted, err
		}
		if err := opts.Core.EnableVectorCatch(opts.VectorCatch); err != nil {
			return TargetHalted, err
		}
		if err := opts.Core.Run(); err != nil {
			return TargetHalted, err
		}
	}

	target, err := attachRTT(opts.Attacher)
	if err != nil {
		slog.Warn("RTT attach failed, continuing without it", "error", err)
	}

	var exit atomic.Bool
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)
	go func() {
		<-sigChan
		exit.Store(true)
	}()
	defer signal.Stop(sigChan)

	outcome, err := poll(opts, target, &exit)
	if err != nil {
		return outcome, err
	}

	if outcome == UserHalted {
		if _, haltErr := opts.Core.Halt(exitHaltTimeout); haltErr != nil {
			return outcome, haltErr
		}
		if opts.AlwaysPrintStackTrace {
			if rErr := stacktrace.Render(opts.Out, opts.UnwindLoader, opts.Core, opts.ImagePath); rErr != nil {
				slog.Error("stack trace render failed", "error", rErr)
			}
		}
	}

	return outcome, nil
}

func attachRTT(attacher rtt.Attacher) (rtt.Target, error) {
	if attacher == nil {
		return nil, nil
	}
	return attacher.Attach()
}

func poll(opts Options, target rtt.Target, exit *atomic.Bool) (Outcome, error) {
	for !exit.Load() {
		gotData, err := pollRTT(opts.Out, target)
		if err != nil {
			return TargetHalted, err
		}

		status, err := opts.Core.Status()
		if err != nil {
			return TargetHalted, err
		}
		if !status.Running {
			if rErr := stacktrace.Render(opts.Out, opts.UnwindLoader, opts.Core, opts.ImagePath); rErr != nil {
				slog.Error("stack trace render failed", "error", rErr)
			}
			return TargetHalted, nil
		}

		if gotData {
			time.Sleep(busyPollInterval)
		} else {
			time.Sleep(idlePollInterval)
		}
	}
	return UserHalted, nil
}

func pollRTT(out io.Writer, target rtt.Target) (bool, error) {
	if target == nil {
		return false, nil
	}
	gotData := false
	for _, ch := range target.Channels() {
		data, err := target.PollChannel(ch)
		if err != nil {
			return gotData, err
		}
		if len(data) > 0 {
			gotData = true
			if out != nil {
				out.Write(data)
			}
		}
	}
	return gotData, nil
}
