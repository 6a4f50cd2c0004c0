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

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is returned when opening, truncating, resizing, or otherwise
	// manipulating the backing file descriptor fails.
	ErrIO = errors.New("shmqueue: i/o error")

	// ErrMap is returned when the mmap/munmap syscall fails, and when
	// the blocking backend's process-shared mutex/condvar cannot be
	// initialized, destroyed, or provided on the current platform.
	ErrMap = errors.New("shmqueue: mapping error")

	// ErrBackendMismatch is returned by Attach/AttachFD when the file's
	// stored backend tag doesn't match the BackendKind the caller asked
	// to attach with.
	ErrBackendMismatch = errors.New("shmqueue: backend mismatch")

	// ErrCapacityMismatch is returned by Attach/AttachFD when the file's
	// length doesn't match sizeof(header) + the stored capacity.
	ErrCapacityMismatch = errors.New("shmqueue: capacity mismatch")

	// ErrPrecondition marks a contract breach: a push or pop whose
	// length exceeds the ring's capacity. Callers that need to move
	// more than capacity bytes must go through Stream.
	ErrPrecondition = errors.New("shmqueue: precondition violation")
)

func ioErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIO}, args...)...)
}

func mapErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMap}, args...)...)
}

// vim: foldmethod=marker
