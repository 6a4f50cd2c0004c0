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

package shmqueue_test

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pault.ag/go/shmqueue"
)

// These tests require a genuine second OS process attached to the
// same backing file rather than a second goroutine in this one,
// using the re-exec-self idiom from the stdlib's own os/exec tests:
// TestMain dispatches to a helper mode selected by an environment
// variable, rather than a literal fork()/exec() pair -- there is no
// portable fork() in Go, and os/exec is the idiomatic replacement.

const helperEnvVar = "SHMQUEUE_HELPER_PROCESS"

func TestMain(m *testing.M) {
	if os.Getenv(helperEnvVar) == "1" {
		os.Exit(runHelperProcess())
	}
	os.Exit(m.Run())
}

func runHelperProcess() int {
	path := os.Getenv("SHMQUEUE_PATH")
	kind := shmqueue.LockFree
	if os.Getenv("SHMQUEUE_BACKEND") == "blocking" {
		kind = shmqueue.Blocking
	}

	q, err := shmqueue.Attach(path, kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helper: attach: %v\n", err)
		return 1
	}
	defer q.Close()
	p := q.Producer()

	switch os.Getenv("SHMQUEUE_MODE") {
	case "simple":
		if err := p.Push([]byte("abc\x00")); err != nil {
			fmt.Fprintf(os.Stderr, "helper: push: %v\n", err)
			return 1
		}
	case "fixed-records":
		for i := 0; i < fixedRecordCount; i++ {
			frame := make([]byte, fixedFrameSize)
			copy(frame, fmt.Appendf(nil, "%04d", i%10000))
			if err := p.Push(frame); err != nil {
				fmt.Fprintf(os.Stderr, "helper: push record %d: %v\n", i, err)
				return 1
			}
		}
	case "random-records":
		rng := rand.New(rand.NewSource(42))
		var total int
		records := make([][]byte, 0, randomRecordCount)
		for i := 0; i < randomRecordCount; i++ {
			n := 24 + rng.Intn(1000)
			records = append(records, make([]byte, n))
			total += n
		}

		header := make([]byte, 4)
		binary.LittleEndian.PutUint32(header, uint32(total))
		if err := p.Push(header); err != nil {
			fmt.Fprintf(os.Stderr, "helper: push header: %v\n", err)
			return 1
		}

		counter := byte(0)
		for _, rec := range records {
			for i := range rec {
				rec[i] = counter
				counter++
			}
			if err := p.Push(rec); err != nil {
				fmt.Fprintf(os.Stderr, "helper: push record: %v\n", err)
				return 1
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "helper: unknown SHMQUEUE_MODE\n")
		return 1
	}
	return 0
}

// TestCrossProcessSimplePushPop checks that a child process pushes one
// short message into a queue this process created; this process pops
// it back out.
func TestCrossProcessSimplePushPop(t *testing.T) {
	for _, kind := range backends() {
		t.Run(kind.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "queue.shm")
			q, err := shmqueue.Create(path, 1024, kind)
			require.NoError(t, err)
			defer q.Close()

			cmd := exec.Command(os.Args[0])
			cmd.Env = append(os.Environ(),
				helperEnvVar+"=1",
				"SHMQUEUE_PATH="+path,
				"SHMQUEUE_MODE=simple",
			)
			if kind == shmqueue.Blocking {
				cmd.Env = append(cmd.Env, "SHMQUEUE_BACKEND=blocking")
			}
			cmd.Stderr = os.Stderr
			require.NoError(t, cmd.Start())

			buf := make([]byte, 4)
			require.NoError(t, q.Consumer().Pop(buf))
			require.Equal(t, "abc\x00", string(buf))

			require.NoError(t, cmd.Wait())
		})
	}
}

const (
	fixedFrameSize    = 1024
	fixedRecordCount  = 10000
	randomRecordCount = 1000
)

// TestCrossProcessFixedRecords checks that a child process pushes
// 10,000 fixed-size 1024-byte frames, each holding a four-digit
// decimal record number; this process pops all of them back out in
// order.
func TestCrossProcessFixedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.shm")
	q, err := shmqueue.Create(path, 4*fixedFrameSize, shmqueue.LockFree)
	require.NoError(t, err)
	defer q.Close()

	cmd := exec.Command(os.Args[0])
	cmd.Env = append(os.Environ(),
		helperEnvVar+"=1",
		"SHMQUEUE_PATH="+path,
		"SHMQUEUE_MODE=fixed-records",
	)
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start())

	c := q.Consumer()
	frame := make([]byte, fixedFrameSize)
	for i := 0; i < fixedRecordCount; i++ {
		require.NoError(t, c.Pop(frame))
		require.Equal(t, fmt.Sprintf("%04d", i%10000), string(frame[:4]))
	}

	require.NoError(t, cmd.Wait())
}

// TestCrossProcessRandomRecordsPopAny checks that a child process
// pushes records of randomized size carrying a continuous byte
// counter; this process drains them with PopAny using a buffer whose
// size doesn't line up with record boundaries, and checks the counter
// sequence survives unbroken regardless of where PopAny's returned
// chunks happen to fall.
func TestCrossProcessRandomRecordsPopAny(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.shm")
	q, err := shmqueue.Create(path, 8192, shmqueue.LockFree)
	require.NoError(t, err)
	defer q.Close()

	cmd := exec.Command(os.Args[0])
	cmd.Env = append(os.Environ(),
		helperEnvVar+"=1",
		"SHMQUEUE_PATH="+path,
		"SHMQUEUE_MODE=random-records",
	)
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start())

	c := q.Consumer()

	header := make([]byte, 4)
	require.NoError(t, c.Pop(header))
	total := int(binary.LittleEndian.Uint32(header))

	var expected byte
	buf := make([]byte, 777) // deliberately unrelated to the record layout
	remaining := total
	for remaining > 0 {
		want := len(buf)
		if want > remaining {
			want = remaining
		}
		got, err := c.PopAny(buf[:want])
		require.NoError(t, err)
		for i := 0; i < got; i++ {
			require.Equal(t, expected, buf[i], "byte offset %d", total-remaining+i)
			expected++
		}
		remaining -= got
	}

	require.NoError(t, cmd.Wait())
}

// vim: foldmethod=marker
