/*
 * probeflash - Flasher error kinds
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
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is by callers that don't care about
// the offending address or status code.
var (
	ErrEraseAllNotSupported     = errors.New("flasher: algorithm does not implement erase_all")
	ErrUnalignedFlashWriteAddress = errors.New("flasher: write address is not aligned to the minimum program unit")
	ErrUnalignedPhraseLength      = errors.New("flasher: phrase length is not aligned to the minimum program unit")
	ErrInvokeTimeout              = errors.New("flasher: timed out waiting for the algorithm to halt")
)

// InitError reports a nonzero R0 from the algorithm's Init entry point.
type InitError struct{ Code uint32 }

func (e *InitError) Error() string { return fmt.Sprintf("flasher: init failed, status 0x%x", e.Code) }

// UninitError reports a nonzero R0 from the algorithm's UnInit entry point.
// It is diagnostic only: the session still transitions back to Inactive.
type UninitError struct{ Code uint32 }

func (e *UninitError) Error() string { return fmt.Sprintf("flasher: uninit failed, status 0x%x", e.Code) }

// EraseAllError reports a nonzero R0 from EraseAll.
type EraseAllError struct{ Code uint32 }

func (e *EraseAllError) Error() string { return fmt.Sprintf("flasher: erase_all failed, status 0x%x", e.Code) }

// EraseSectorError reports a nonzero R0 from EraseSector.
type EraseSectorError struct {
	Code    uint32
	Address uint32
}

func (e *EraseSectorError) Error() string {
	return fmt.Sprintf("flasher: erase_sector(0x%x) failed, status 0x%x", e.Address, e.Code)
}

// ProgramPageError reports a nonzero R0 from ProgramPage.
type ProgramPageError struct {
	Code    uint32
	Address uint32
}

func (e *ProgramPageError) Error() string {
	return fmt.Sprintf("flasher: program_page(0x%x) failed, status 0x%x", e.Address, e.Code)
}

// ProgramPhraseError reports a nonzero R0 from ProgramPhrase.
type ProgramPhraseError struct {
	Code    uint32
	Address uint32
}

func (e *ProgramPhraseError) Error() string {
	return fmt.Sprintf("flasher: program_phrase(0x%x) failed, status 0x%x", e.Address, e.Code)
}

// InvalidBufferNumberError reports an out-of-range page buffer index: valid
// indices are strictly less than Capacity.
type InvalidBufferNumberError struct {
	N        uint32
	Capacity uint32
}

func (e *InvalidBufferNumberError) Error() string {
	return fmt.Sprintf("flasher: buffer number %d out of range, have %d page buffers", e.N, e.Capacity)
}
