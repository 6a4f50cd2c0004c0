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

//go:build !windows

package shmqueue

/*
#include <pthread.h>
#include <string.h>
#include <errno.h>

// blocking_header_t: a plain size counter guarded by a process-shared
// mutex/condvar pair. Go can't express pthread_mutex_t/pthread_cond_t
// directly (they're opaque, platform-sized blobs), so this lives
// entirely on the C side and Go only ever holds a pointer into the
// mmap'd region cast to this type.
typedef struct {
    int size;
    pthread_mutex_t mutex;
    pthread_cond_t cond;
} blocking_header_t;

static size_t shmqueue_blocking_header_size() {
    return sizeof(blocking_header_t);
}

static int shmqueue_blocking_init(blocking_header_t* h) {
    h->size = 0;

    pthread_mutexattr_t mattr;
    if (pthread_mutexattr_init(&mattr) != 0) return -1;
    if (pthread_mutexattr_setpshared(&mattr, PTHREAD_PROCESS_SHARED) != 0) return -1;
#ifdef PTHREAD_MUTEX_ADAPTIVE_NP
    pthread_mutexattr_settype(&mattr, PTHREAD_MUTEX_ADAPTIVE_NP);
#endif
    int rc = pthread_mutex_init(&h->mutex, &mattr);
    pthread_mutexattr_destroy(&mattr);
    if (rc != 0) return -1;

    pthread_condattr_t cattr;
    if (pthread_condattr_init(&cattr) != 0) return -1;
    if (pthread_condattr_setpshared(&cattr, PTHREAD_PROCESS_SHARED) != 0) return -1;
    rc = pthread_cond_init(&h->cond, &cattr);
    pthread_condattr_destroy(&cattr);
    return rc == 0 ? 0 : -1;
}

// shmqueue_blocking_wait blocks until h->size satisfies cur >= n
// (wantRead == 1) or capacity-cur >= n (wantRead == 0), the same
// while-loop predicate a spinning push/pop would use, just descheduled
// on a condvar instead of busy-looping. Returns the observed size once
// the predicate holds.
static int shmqueue_blocking_wait(blocking_header_t* h, int capacity, int n, int wantRead) {
    pthread_mutex_lock(&h->mutex);
    for (;;) {
        int cur = h->size;
        if (wantRead) {
            if (cur >= n) { pthread_mutex_unlock(&h->mutex); return cur; }
        } else {
            if (capacity - cur >= n) { pthread_mutex_unlock(&h->mutex); return cur; }
        }
        pthread_cond_wait(&h->cond, &h->mutex);
    }
}

// shmqueue_blocking_inc applies delta to size and broadcasts: both a
// producer waiting for freespace and a consumer waiting for occupancy
// share this one condvar, so a broadcast is used instead of a targeted
// signal -- a signal could wake the wrong party and stall the right
// one.
static void shmqueue_blocking_inc(blocking_header_t* h, int delta) {
    pthread_mutex_lock(&h->mutex);
    h->size += delta;
    pthread_cond_broadcast(&h->cond);
    pthread_mutex_unlock(&h->mutex);
}

static int shmqueue_blocking_peek(blocking_header_t* h) {
    pthread_mutex_lock(&h->mutex);
    int cur = h->size;
    pthread_mutex_unlock(&h->mutex);
    return cur;
}

static int shmqueue_blocking_destroy(blocking_header_t* h) {
    int rc1 = pthread_cond_destroy(&h->cond);
    int rc2 = pthread_mutex_destroy(&h->mutex);
    if (rc1 != 0) return rc1;
    return rc2;
}
*/
import "C"

import "unsafe"

// blockingHeaderSize is sizeof(blocking_header_t), queried from C so
// this package never has to guess pthread's platform-specific mutex
// and condvar sizes.
var blockingHeaderSize = int(C.shmqueue_blocking_header_size())

// blockingBackend coordinates producer and consumer with a
// process-shared pthread mutex/condvar pair embedded in the mapped
// file.
type blockingBackend struct {
	common   *commonHeader
	h        *C.blocking_header_t
	capacity int32
}

func (b *blockingBackend) headerSize() int {
	return commonHeaderSize + blockingHeaderSize
}

func (b *blockingBackend) bind(mem []byte) {
	b.common = fieldAt[commonHeader](mem, 0)
	b.h = (*C.blocking_header_t)(unsafe.Pointer(&mem[commonHeaderSize]))
	b.capacity = b.common.capacity
}

func (b *blockingBackend) init(mem []byte) error {
	b.bind(mem)
	if rc := C.shmqueue_blocking_init(b.h); rc != 0 {
		return mapErrorf("pthread process-shared mutex/condvar init failed (rc=%d)", int(rc))
	}
	return nil
}

func (b *blockingBackend) attach(mem []byte) error {
	b.bind(mem)
	return nil
}

func (b *blockingBackend) waitRead(n int32) int32 {
	return int32(C.shmqueue_blocking_wait(b.h, C.int(b.capacity), C.int(n), 1))
}

func (b *blockingBackend) waitWrite(n int32) {
	C.shmqueue_blocking_wait(b.h, C.int(b.capacity), C.int(n), 0)
}

func (b *blockingBackend) incSize(delta int32) {
	C.shmqueue_blocking_inc(b.h, C.int(delta))
}

func (b *blockingBackend) size() int32 {
	return int32(C.shmqueue_blocking_peek(b.h))
}

func (b *blockingBackend) close() error {
	if b.h == nil {
		return nil
	}
	if rc := C.shmqueue_blocking_destroy(b.h); rc != 0 {
		return mapErrorf("pthread mutex/condvar destroy failed (rc=%d)", int(rc))
	}
	return nil
}

// vim: foldmethod=marker
