package logger

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures the rotating file backend.
type FileOptions struct {
	// Path of the active log file.
	Path string
	// MaxSizeMB rotates the file once it grows past this size.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int
	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int
	// Compress gzips rotated files.
	Compress bool
	// Console also mirrors every line to stderr.
	Console bool
}

// FileLogger is a StandardLogger writing to a size-rotated file.
type FileLogger struct {
	*StandardLogger
	out *lumberjack.Logger
}

// NewFileLogger opens a rotating log file described by opts.
func NewFileLogger(opts FileOptions) *FileLogger {
	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	var w io.Writer = lj
	if opts.Console {
		w = io.MultiWriter(os.Stderr, lj)
	}
	return &FileLogger{
		StandardLogger: NewStandardLogger(log.New(w, "", log.LstdFlags)),
		out:            lj,
	}
}

// Close closes the current log file.
func (f *FileLogger) Close() error {
	return f.out.Close()
}

var _ Logger = (*FileLogger)(nil)
