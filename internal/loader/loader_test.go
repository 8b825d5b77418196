/*
 * probeflash - Firmware image loader tests
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

package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	want := []byte{1, 2, 3, 4, 5}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	chunks, err := LoadFile(path, Raw, 0x0800_0000)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if chunks[0].Address != 0x0800_0000 || !bytes.Equal(chunks[0].Data, want) {
		t.Errorf("chunk = %+v", chunks[0])
	}
}

func TestLoadFormatNotSupported(t *testing.T) {
	_, err := LoadFile("unused", IntelHex, 0)
	if err != ErrFormatNotSupported {
		t.Errorf("err = %v, want ErrFormatNotSupported", err)
	}

	_, err = LoadFile("unused", Vendor, 0)
	if err != ErrFormatNotSupported {
		t.Errorf("err = %v, want ErrFormatNotSupported", err)
	}
}
