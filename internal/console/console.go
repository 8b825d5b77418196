/*
 * probeflash - Interactive session console
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

// Package console provides an ad hoc line-editor REPL for inspecting a
// session that is already attached to a target, as an alternative to the
// automated supervision loop.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/rcornwell/probeflash/internal/transport"
)

type command struct {
	name    string
	minArgs int
	run     func(core transport.Probe, args []string) (quit bool, err error)
}

var commands []command

func init() {
	commands = []command{
		{"status", 0, cmdStatus},
		{"regs", 0, cmdRegs},
		{"halt", 0, cmdHalt},
		{"run", 0, cmdRun},
		{"quit", 0, cmdQuit},
	}
}

// Run starts the REPL against core, reading lines from stdin until the user
// quits, aborts with Ctrl-C, or input ends (Ctrl-D, logged as a read error).
func Run(core transport.Probe) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCmd)

	for {
		input, err := line.Prompt("probeflash> ")
		if err == nil {
			line.AppendHistory(input)
			quit, cmdErr := dispatch(core, input)
			if cmdErr != nil {
				fmt.Println("Error: " + cmdErr.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("console: error reading line", "error", err)
		return
	}
}

func completeCmd(prefix string) []string {
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c.name, prefix) {
			out = append(out, c.name)
		}
	}
	return out
}

func dispatch(core transport.Probe, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if len(args) < c.minArgs {
			return false, fmt.Errorf("%s requires at least %d argument(s)", name, c.minArgs)
		}
		return c.run(core, args)
	}
	return false, fmt.Errorf("unknown command %q", name)
}

func cmdStatus(core transport.Probe, _ []string) (bool, error) {
	status, err := core.Status()
	if err != nil {
		return false, err
	}
	if status.Running {
		fmt.Println("running")
	} else {
		fmt.Printf("halted (%v)\n", status.Reason)
	}
	return false, nil
}

func cmdRegs(core transport.Probe, _ []string) (bool, error) {
	for _, id := range []transport.RegisterID{transport.PC, transport.R0, transport.R1, transport.R2, transport.R3, transport.R9, transport.SP, transport.LR} {
		v, err := core.ReadCoreReg(id)
		if err != nil {
			return false, err
		}
		fmt.Printf("%-3s 0x%08x\n", id, v)
	}
	return false, nil
}

func cmdHalt(core transport.Probe, _ []string) (bool, error) {
	_, err := core.Halt(time.Second)
	return false, err
}

func cmdRun(core transport.Probe, _ []string) (bool, error) {
	return false, core.Run()
}

func cmdQuit(transport.Probe, []string) (bool, error) {
	return true, nil
}
