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

// Package shmqueue is a single-producer/single-consumer byte-stream
// queue backed by a memory-mapped file, for inter-process
// communication on a POSIX host.
//
// A fixed-capacity circular buffer and its synchronization metadata
// live in a shared region; one process Creates the file, the other
// Attaches to it, and from then on a Producer and a Consumer exchange
// an arbitrarily long stream of bytes with no kernel copies on the
// fast path.
//
// Two backends implement the same ring-buffer layout and the same
// externally observable semantics: LockFree coordinates with atomic
// counters and cooperative spinning, Blocking coordinates with a
// process-shared mutex/condvar pair so a waiter sleeps instead. Pick
// one at Create/Attach time; both sides of a queue must agree.
//
// The queue is a byte stream, not a message queue: it carries no
// framing. A single Push may be observed across any number of Pops
// and vice versa. Use Stream to move more bytes than the ring's
// capacity in one call; it chunks internally so producer and consumer
// can always make progress.
//
// This package implements neither multi-producer/multi-consumer
// safety, crash-consistency across restarts, message framing, nor
// cross-machine transport.
package shmqueue

// vim: foldmethod=marker
