package canio

import (
	"context"
	"log/slog"
)

// LogOption is a bitmask selecting which operations a logged decorator
// reports.
type LogOption uint8

const (
	LogNone  LogOption = 0
	LogRead  LogOption = 1 << iota
	LogWrite
	LogAll = LogRead | LogWrite
)

// NewLoggedWriter wraps w and logs each Write at the given level.
// BufferExhausted results are logged at debug level since Blocking and
// WriteAll retry them.
func NewLoggedWriter(w Writer, logger *slog.Logger, level slog.Level) Writer {
	return &loggedReadWriter{w: w, logger: logger, level: level, opts: LogWrite}
}

// NewLoggedReader wraps r and logs each ReadUntil at the given level.
func NewLoggedReader(r Reader, logger *slog.Logger, level slog.Level) Reader {
	return &loggedReadWriter{r: r, logger: logger, level: level, opts: LogRead}
}

// NewLoggedReadWriter wraps rw and logs the operations selected by opts.
func NewLoggedReadWriter(rw ReadWriter, logger *slog.Logger, level slog.Level, opts LogOption) ReadWriter {
	return &loggedReadWriter{r: rw, w: rw, logger: logger, level: level, opts: opts}
}

type loggedReadWriter struct {
	r      Reader
	w      Writer
	logger *slog.Logger
	level  slog.Level
	opts   LogOption
}

func (l *loggedReadWriter) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if l.opts&LogWrite != 0 {
		l.log("canio write", err, "len", len(p), "written", n, "data", clip(p, n))
	}
	return n, err
}

func (l *loggedReadWriter) ReadUntil(delim byte, p []byte) (int, error) {
	n, err := l.r.ReadUntil(delim, p)
	if l.opts&LogRead != 0 {
		l.log("canio read", err, "delim", delim, "read", n, "data", clip(p, n))
	}
	return n, err
}

func (l *loggedReadWriter) log(msg string, err error, args ...any) {
	switch {
	case err == nil:
		l.logger.Log(context.Background(), l.level, msg, args...)
	case IsExhausted(err):
		l.logger.Log(context.Background(), slog.LevelDebug, msg, append(args, "error", err)...)
	default:
		l.logger.Log(context.Background(), slog.LevelError, msg+" error", append(args, "kind", KindOf(err).String(), "error", err)...)
	}
}

func clip(p []byte, n int) []byte {
	return p[:max(0, min(n, len(p)))]
}
