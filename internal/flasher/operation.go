/*
 * probeflash - Flasher operation markers
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

// Operation is the compile-time tag on an Active flasher session. Each
// implementation is a zero-size marker type; the type parameter on
// Active[O] is what keeps erase-only and program-only primitives from being
// callable on the wrong kind of session.
type Operation interface {
	Code() uint32
}

// Erase tags a session opened for erase operations.
type Erase struct{}

// Code is the value written into R2 during Init.
func (Erase) Code() uint32 { return 1 }

// Program tags a session opened for programming operations.
type Program struct{}

// Code is the value written into R2 during Init.
func (Program) Code() uint32 { return 2 }

// Verify tags a session opened for the (currently unimplemented) verify
// accelerator. Carried for completeness; the accelerator's own invocation
// protocol is not implemented here.
type Verify struct{}

// Code is the value written into R2 during Init.
func (Verify) Code() uint32 { return 3 }
