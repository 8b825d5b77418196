/*
 * probeflash - Target description loader
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

// Package target loads chip profiles from a line-oriented description file:
// one '[name]' stanza per chip, '#' comments, and one key=value pair per
// line (whitespace around '=' is ignored, and the value runs to the end of
// the line), in the same hand-rolled idiom the host tool's own device
// configuration parser uses.
package target

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rcornwell/probeflash/internal/algorithm"
	"github.com/rcornwell/probeflash/internal/transport"
)

// Target bundles everything a flash session needs for one chip: its flash
// geometry, its algorithm blob, and the register handles the algorithm
// invoker addresses by name.
type Target struct {
	Name      string
	Region    algorithm.FlashRegion
	Algorithm algorithm.FlashAlgorithm
	Registers map[string]transport.RegisterID
}

var registerNames = map[string]transport.RegisterID{
	"pc": transport.PC,
	"r0": transport.R0,
	"r1": transport.R1,
	"r2": transport.R2,
	"r3": transport.R3,
	"r9": transport.R9,
	"sp": transport.SP,
	"lr": transport.LR,
}

// LoadFile parses every chip stanza in path and returns them keyed by name.
func LoadFile(path string) (map[string]*Target, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parse(file)
}

// LoadChip loads path and returns the single stanza named chip.
func LoadChip(path, chip string) (*Target, error) {
	targets, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	t, ok := targets[chip]
	if !ok {
		return nil, fmt.Errorf("target: no chip %q in %s", chip, path)
	}
	return t, nil
}

type parseError struct {
	line int
	msg  string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("target: line %d: %s", e.line, e.msg)
}

func parse(r io.Reader) (map[string]*Target, error) {
	targets := map[string]*Target{}

	var current *Target
	lineNumber := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNumber++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			name, err := parseStanzaHeader(line)
			if err != nil {
				return nil, &parseError{lineNumber, err.Error()}
			}
			current = &Target{Name: name, Registers: map[string]transport.RegisterID{}}
			targets[name] = current
			continue
		}

		if current == nil {
			return nil, &parseError{lineNumber, "key=value line outside any [chip] stanza"}
		}

		key, value, err := parseKeyValue(line)
		if err != nil {
			return nil, &parseError{lineNumber, err.Error()}
		}
		if err := current.apply(key, value); err != nil {
			return nil, &parseError{lineNumber, err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return targets, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func parseStanzaHeader(line string) (string, error) {
	if !strings.HasSuffix(line, "]") {
		return "", errors.New("unterminated [chip] stanza header")
	}
	name := strings.TrimSpace(line[1 : len(line)-1])
	if name == "" {
		return "", errors.New("empty chip stanza name")
	}
	return name, nil
}

func parseKeyValue(token string) (key, value string, err error) {
	parts := strings.SplitN(token, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected key=value, got %q", token)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func (t *Target) apply(key, value string) error {
	switch key {
	case "range":
		start, end, err := parseRange(value)
		if err != nil {
			return err
		}
		t.Region.Start, t.Region.End = start, end
	case "sector_size":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Region.SectorSize = v
	case "page_size":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Region.PageSize = v
	case "erase_all_weight":
		v, err := parseFloat(value)
		if err != nil {
			return err
		}
		t.Region.EraseAllWeight = v
	case "erase_sector_weight":
		v, err := parseFloat(value)
		if err != nil {
			return err
		}
		t.Region.EraseSectorWeight = v
	case "program_page_weight":
		v, err := parseFloat(value)
		if err != nil {
			return err
		}
		t.Region.ProgramPageWeight = v
	case "load_address":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.LoadAddress = v
	case "instructions":
		words, err := parseWordList(value)
		if err != nil {
			return err
		}
		t.Algorithm.Instructions = words
	case "pc_init":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.PCInit, t.Algorithm.HasPCInit = v, true
	case "pc_uninit":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.PCUninit, t.Algorithm.HasPCUninit = v, true
	case "pc_erase_all":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.PCEraseAll, t.Algorithm.HasPCEraseAll = v, true
	case "pc_erase_sector":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.PCEraseSector = v
	case "pc_program_page":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.PCProgramPage = v
	case "static_base":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.StaticBase = v
	case "begin_stack":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.BeginStack = v
	case "begin_data":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.BeginData = v
	case "page_buffers":
		words, err := parseWordList(value)
		if err != nil {
			return err
		}
		t.Algorithm.PageBuffers = words
	case "min_program_length":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.MinProgramLength, t.Algorithm.HasMinProgramLength = v, true
	case "analyzer_supported":
		t.Algorithm.AnalyzerSupported = value == "true" || value == "1"
	case "analyzer_address":
		v, err := parseUint(value)
		if err != nil {
			return err
		}
		t.Algorithm.AnalyzerAddress = v
	default:
		id, ok := registerNames[key]
		if !ok {
			return fmt.Errorf("unknown key %q", key)
		}
		t.Registers[key] = id
	}
	return nil
}

func parseRange(value string) (start, end uint32, err error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range %q must be start-end", value)
	}
	start, err = parseUint(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err = parseUint(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseWordList(value string) ([]uint32, error) {
	fields := strings.Fields(value)
	words := make([]uint32, 0, len(fields))
	for _, f := range fields {
		v, err := parseUint(f)
		if err != nil {
			return nil, err
		}
		words = append(words, v)
	}
	return words, nil
}

func parseUint(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q: %w", s, err)
	}
	return uint32(v), nil
}

// parseFloat parses a weight value. Weights are relative cost ratios, not
// addresses, so they are decimal, unlike every other field in a stanza.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid weight value %q: %w", s, err)
	}
	return v, nil
}
