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
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Option configures a Queue at Create/Attach time, following the
// functional-options shape idiomatic for top-level constructors with
// several optional knobs.
type Option func(*queueOptions)

type queueOptions struct {
	keepFileOpen bool
	log          *zap.SugaredLogger
}

func newQueueOptions() *queueOptions {
	return &queueOptions{
		log: zap.NewNop().Sugar(),
	}
}

// WithKeepFileOpen leaves the backing *os.File open across Close.
// Useful when the file handle's lifecycle is owned by the caller (e.g.
// it was inherited across a fork and other code still needs it).
func WithKeepFileOpen() Option {
	return func(o *queueOptions) { o.keepFileOpen = true }
}

// WithLogger attaches a logger used for Create/Attach/Close
// diagnostics. Push/Pop/PopAny never log: they're the operations
// allowed to block or spin, and logging on that path would perturb
// the latency the queue exists to minimize. Defaults to a no-op
// logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *queueOptions) { o.log = log }
}

// Queue owns the memory-mapped shared region backing a single ring
// buffer and the backend synchronization state embedded in its
// header. A Queue is created by exactly one party and attached by its
// peer; see Create, Attach, and AttachFD.
type Queue struct {
	file         *os.File
	mem          []byte
	b            backend
	capacity     int32
	dataOff      int
	keepFileOpen bool
	log          *zap.SugaredLogger
}

// Create truncates the file at path to sizeof(header)+capacity, maps
// it MAP_SHARED, and initializes the header for the given backend.
// The peer must Attach after this call returns; Create always
// truncates, so a second Create on the same path discards any
// existing queue state.
func Create(path string, capacity int32, kind BackendKind, opts ...Option) (*Queue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrPrecondition, capacity)
	}
	o := newQueueOptions()
	for _, opt := range opts {
		opt(o)
	}

	b := newBackend(kind)
	total := int64(b.headerSize()) + int64(capacity)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, ioErrorf("open %q: %v", path, err)
	}
	if err := f.Truncate(total); err != nil {
		f.Close()
		return nil, ioErrorf("truncate %q to %d bytes: %v", path, total, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, mapErrorf("mmap %q: %v", path, err)
	}

	common := readCommonHeader(mem)
	common.backendTag = tagFor(kind)
	common.capacity = capacity

	if err := b.init(mem); err != nil {
		unix.Munmap(mem)
		f.Close()
		return nil, err
	}

	o.log.Infow("created shared-memory queue", "path", path, "capacity", capacity, "backend", kind.String())

	return &Queue{
		file:         f,
		mem:          mem,
		b:            b,
		capacity:     capacity,
		dataOff:      b.headerSize(),
		keepFileOpen: o.keepFileOpen,
		log:          o.log,
	}, nil
}

// Attach opens the already-created file at path, maps its full
// length, and validates that its backend tag and stored capacity
// match the backend the caller asked to attach with. It never
// modifies the header.
func Attach(path string, kind BackendKind, opts ...Option) (*Queue, error) {
	o := newQueueOptions()
	for _, opt := range opts {
		opt(o)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, ioErrorf("open %q: %v", path, err)
	}
	q, err := attachFile(f, kind, o)
	if err != nil {
		f.Close()
		return nil, err
	}
	return q, nil
}

// AttachFD attaches to a queue file via a descriptor already open in
// this process, typically one inherited across a fork/exec (passed
// via os/exec's ExtraFiles). Semantically identical to Attach.
func AttachFD(fd uintptr, kind BackendKind, opts ...Option) (*Queue, error) {
	o := newQueueOptions()
	for _, opt := range opts {
		opt(o)
	}

	f := os.NewFile(fd, "shmqueue")
	if f == nil {
		return nil, ioErrorf("invalid inherited file descriptor %d", fd)
	}
	q, err := attachFile(f, kind, o)
	if err != nil {
		f.Close()
		return nil, err
	}
	return q, nil
}

func attachFile(f *os.File, kind BackendKind, o *queueOptions) (*Queue, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, ioErrorf("stat %q: %v", f.Name(), err)
	}
	size := stat.Size()

	mem, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, mapErrorf("mmap %q: %v", f.Name(), err)
	}

	common := readCommonHeader(mem)
	if common.backendTag != tagFor(kind) {
		unix.Munmap(mem)
		return nil, fmt.Errorf("%w: %q was created with a different backend than %s", ErrBackendMismatch, f.Name(), kind)
	}

	b := newBackend(kind)
	headerSize := b.headerSize()
	wantSize := int64(headerSize) + int64(common.capacity)
	if wantSize != size {
		unix.Munmap(mem)
		return nil, fmt.Errorf("%w: %q is %d bytes, expected %d for capacity %d",
			ErrCapacityMismatch, f.Name(), size, wantSize, common.capacity)
	}

	if err := b.attach(mem); err != nil {
		unix.Munmap(mem)
		return nil, err
	}

	o.log.Infow("attached to shared-memory queue", "path", f.Name(), "capacity", common.capacity, "backend", kind.String())

	return &Queue{
		file:         f,
		mem:          mem,
		b:            b,
		capacity:     common.capacity,
		dataOff:      headerSize,
		keepFileOpen: o.keepFileOpen,
		log:          o.log,
	}, nil
}

// Capacity returns the fixed byte capacity of the ring, as set at
// Create time. Never blocks.
func (q *Queue) Capacity() int32 {
	return q.capacity
}

// Size returns the number of bytes currently occupying the ring,
// without blocking or otherwise affecting the producer/consumer
// cursors. A momentary snapshot: by the time the caller observes it,
// a concurrent Push or Pop may already have changed it. Useful for
// diagnostics (cmd/shmqueuectl inspect) rather than flow control.
func (q *Queue) Size() int32 {
	return q.b.size()
}

func (q *Queue) data() []byte {
	return q.mem[q.dataOff : q.dataOff+int(q.capacity)]
}

// Producer returns the producer-side endpoint for this queue. Exactly
// one goroutine/process should drive it for the queue's lifetime.
func (q *Queue) Producer() *Producer {
	return &Producer{ringEndpoint: ringEndpoint{data: q.data(), capacity: q.capacity, b: q.b}}
}

// Consumer returns the consumer-side endpoint for this queue. Exactly
// one goroutine/process should drive it for the queue's lifetime.
func (q *Queue) Consumer() *Consumer {
	return &Consumer{ringEndpoint: ringEndpoint{data: q.data(), capacity: q.capacity, b: q.b}}
}

// Close releases backend resources (e.g. destroys the pthread
// mutex/condvar for the blocking backend, which live inside the
// mapping), unmaps the shared region, and closes the backing file
// unless the queue was built with WithKeepFileOpen. Destruction has no
// handshake with the peer: a Close on one side while the other is
// mid-Push/Pop is the caller's responsibility to avoid.
func (q *Queue) Close() error {
	if err := q.b.close(); err != nil {
		return err
	}
	if err := unix.Munmap(q.mem); err != nil {
		return mapErrorf("munmap: %v", err)
	}
	q.log.Infow("closed shared-memory queue", "path", q.file.Name())
	if q.keepFileOpen {
		return nil
	}
	if err := q.file.Close(); err != nil {
		return ioErrorf("close %q: %v", q.file.Name(), err)
	}
	return nil
}

// vim: foldmethod=marker
