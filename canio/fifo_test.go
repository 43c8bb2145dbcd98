package canio

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFO_FullAndEmpty(t *testing.T) {
	q := NewFIFO(4)

	n, err := q.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = q.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrBufferExhausted)

	buf := make([]byte, 8)
	n, err = q.ReadUntil('\r', buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf[:n]))

	_, err = q.ReadUntil('\r', buf)
	assert.ErrorIs(t, err, ErrBufferExhausted)

	n, err = q.ReadUntil('\r', nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestFIFO_ReadUntilDelimiter(t *testing.T) {
	q := NewFIFO(16)
	require.NoError(t, WriteString(q, "t1230\rt4561AA\r"))

	buf := make([]byte, 32)
	n, err := q.ReadUntil('\r', buf)
	require.NoError(t, err)
	assert.Equal(t, "t1230\r", string(buf[:n]))

	n, err = q.ReadUntil('\r', buf[:3])
	require.NoError(t, err)
	assert.Equal(t, "t45", string(buf[:n]), "stops when the buffer is full")

	n, err = q.ReadUntil('\r', buf)
	require.NoError(t, err)
	assert.Equal(t, "61AA\r", string(buf[:n]))
}

func TestFIFO_WrapAround(t *testing.T) {
	q := NewFIFO(5)
	buf := make([]byte, 5)
	for i := 0; i < 10; i++ {
		require.NoError(t, WriteString(q, "ab\n"))
		n, err := q.ReadUntil('\n', buf)
		require.NoError(t, err)
		require.Equal(t, "ab\n", string(buf[:n]))
	}
	assert.Zero(t, q.Len())
	assert.Equal(t, 5, q.Cap())
}

func TestFIFO_BlockingDrain(t *testing.T) {
	q := NewFIFO(3)
	reads := 0
	n, err := Blocking(func() (int, error) {
		reads++
		if reads == 3 {
			// Data arrives after two empty polls.
			_, _ = q.Write([]byte("ok\n"))
		}
		return q.ReadUntil('\n', make([]byte, 3))
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, reads)
}

func TestLoggedReadWriter(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	q := NewFIFO(2)
	rw := NewLoggedReadWriter(q, logger, slog.LevelInfo, LogAll)

	err := WriteString(rw, "ab")
	require.NoError(t, err)
	_, err = rw.Write([]byte("c"))
	assert.ErrorIs(t, err, ErrBufferExhausted)

	buf := make([]byte, 2)
	_, err = rw.ReadUntil(0, buf)
	require.NoError(t, err)

	logs := out.String()
	assert.Contains(t, logs, "level=INFO msg=\"canio write\"")
	assert.Contains(t, logs, "level=DEBUG msg=\"canio write\"")
	assert.Contains(t, logs, "level=INFO msg=\"canio read\"")

	out.Reset()
	w := NewLoggedWriter(&chunkWriter{k: 1, errs: []error{ErrInvalidInput}}, logger, slog.LevelInfo)
	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, out.String(), "level=ERROR msg=\"canio write error\"")
	assert.Contains(t, out.String(), "kind=\"invalid input\"")
}
