package logger

import (
	"log"
	"strings"
)

// ToStdLogger adapts l for libraries that only accept a *log.Logger, such
// as net/http and jrpc2. Every line is logged at error level.
func ToStdLogger(l Logger, prefix string) *log.Logger {
	return log.New(stdWriter{l: l}, prefix, 0)
}

type stdWriter struct {
	l Logger
}

func (w stdWriter) Write(p []byte) (int, error) {
	w.l.Error("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
