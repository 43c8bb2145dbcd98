// Package canio is a small byte oriented I/O abstraction for CAN drivers.
//
// Drivers expose non-blocking primitives that fail with BufferExhausted when
// a hardware or kernel FIFO is full or empty. Blocking turns any such
// primitive into a blocking one by retrying in place.
package canio

import (
	"fmt"
)

// Writer writes bytes to a driver.
//
// Write makes at most one underlying write attempt per call and may accept
// fewer bytes than len(p). Bytes reported as written are never dropped.
type Writer interface {
	Write(p []byte) (n int, err error)
}

// Reader reads bytes from a driver.
//
// ReadUntil places bytes into p and stops after the delimiter, when p is
// full, or at the end of the source. It returns the number of bytes placed,
// including the delimiter. A return of 0 means end of source or len(p) == 0;
// callers must check len(p) to tell which.
type Reader interface {
	ReadUntil(delim byte, p []byte) (n int, err error)
}

// ReadWriter groups Reader and Writer.
type ReadWriter interface {
	Reader
	Writer
}

// WriteAll calls w.Write until every byte of p has been accepted.
// Bytes reported as written are never sent again, even when the same call
// also failed. BufferExhausted is retried; any other error is returned
// immediately.
// A write accepting zero bytes is not an error by itself.
func WriteAll(w Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if n < 0 || n > len(p) {
			return Errorf(Other, "write", "driver reported %d bytes for a %d byte buffer", n, len(p))
		}
		p = p[n:]
		if err != nil && !IsExhausted(err) {
			return err
		}
	}
	return nil
}

// WriteString writes s with WriteAll.
func WriteString(w Writer, s string) error {
	return WriteAll(w, []byte(s))
}

// Fprintf formats according to format and writes the result with WriteAll.
func Fprintf(w Writer, format string, args ...any) error {
	return WriteAll(w, fmt.Appendf(nil, format, args...))
}
