/*
 * probeflash - RTT attachment contract
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

// Package rtt defines the contract for draining a target's Real-Time
// Transfer control block. Locating the control block in target RAM and
// decoding its ring buffers is outside this module's scope; the supervision
// loop only needs something that can be polled.
package rtt

// Target is an attached RTT control block. PollChannel reads whatever bytes
// are currently available on a channel without blocking and without halting
// the core.
type Target interface {
	// Channels lists the up-channel indices currently available to poll.
	Channels() []int
	// PollChannel returns any bytes currently buffered on ch. An empty,
	// nil-error result means "nothing available right now", not an error.
	PollChannel(ch int) ([]byte, error)
}

// Attach locates and attaches to a target's RTT control block. Real
// implementations scan a memory region for the control block's signature;
// this module does not implement that scan; it only defines the seam the
// supervision loop polls through.
type Attacher interface {
	Attach() (Target, error)
}
