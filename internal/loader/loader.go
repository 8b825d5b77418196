/*
 * probeflash - Firmware image loader
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

// Package loader turns a firmware image on disk into address-tagged chunks
// ready to be written through the transport façade.
package loader

import (
	"debug/elf"
	"errors"
	"io"
	"os"
)

// Format names a supported (or declared-but-unsupported) image encoding.
type Format int

const (
	Raw Format = iota
	ELF
	IntelHex
	Vendor
)

// ErrFormatNotSupported is returned for formats that are named by the CLI
// surface but have no in-tree decoder.
var ErrFormatNotSupported = errors.New("loader: format not supported")

// Chunk is a contiguous run of bytes destined for a specific target address.
type Chunk struct {
	Address uint32
	Data    []byte
}

// LoadFile reads path as format, with offset only meaningful for Raw.
func LoadFile(path string, format Format, offset uint32) ([]Chunk, error) {
	switch format {
	case Raw:
		return loadRaw(path, offset)
	case ELF:
		return loadELF(path)
	default:
		return nil, ErrFormatNotSupported
	}
}

func loadRaw(path string, offset uint32) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return []Chunk{{Address: offset, Data: data}}, nil
}

func loadELF(path string) ([]Chunk, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []Chunk
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{Address: uint32(prog.Paddr), Data: data})
	}
	return chunks, nil
}
