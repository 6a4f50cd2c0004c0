// {{{ Copyright (c) Paul R. Tagliamonte <paultag@gmail.com> 2020-2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package shmqueue

import "unsafe"

// BackendKind selects the synchronization discipline a Queue uses to
// coordinate its producer and consumer across address spaces. It must
// be the same on both sides of a Create/Attach pair; the header tag
// lets Attach catch a mismatch instead of silently misreading the
// shared region.
type BackendKind int32

const (
	// LockFree coordinates with a plain atomic size counter and
	// cooperative busy-yield spinning. No kernel sleep, lowest latency
	// under light contention, burns CPU while waiting.
	LockFree BackendKind = iota
	// Blocking coordinates with a process-shared mutex and condition
	// variable. A waiter is descheduled instead of spinning; costs a
	// signal on every push/pop.
	Blocking
)

func (b BackendKind) String() string {
	switch b {
	case LockFree:
		return "lockfree"
	case Blocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// backend tags stored in the header so Attach can refuse to attach a
// file written by the other backend. Arbitrary 32-bit constants, not
// meaningful outside this package.
const (
	tagLockFree int32 = 0x4c4b4652 // "LKFR"
	tagBlocking int32 = 0x424c434b // "BLCK"
)

func tagFor(kind BackendKind) int32 {
	if kind == Blocking {
		return tagBlocking
	}
	return tagLockFree
}

// commonHeader is the fixed prefix present in every shared region,
// regardless of backend: a tag identifying which backend laid the
// header out, followed by the fixed ring capacity. Both are written
// once, at Create time, and never mutated again.
type commonHeader struct {
	backendTag int32
	capacity   int32
}

const commonHeaderSize = int(unsafe.Sizeof(commonHeader{}))

// fieldAt reinterprets the byte slice at the given offset as a
// pointer to T. The caller is responsible for ensuring off+sizeof(T)
// is within mem and naturally aligned for T; every call site in this
// package computes offsets from fixed, constant header layouts so
// this holds by construction.
func fieldAt[T any](mem []byte, off int) *T {
	return (*T)(unsafe.Pointer(&mem[off]))
}

func readCommonHeader(mem []byte) *commonHeader {
	return fieldAt[commonHeader](mem, 0)
}

// vim: foldmethod=marker
