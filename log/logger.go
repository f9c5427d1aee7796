package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes leveled printf-style messages. Loggers derived via Named
// share the sink of their parent.
type Logger struct {
	name  string
	level LogLevel
	sink  *sink
}

// LoggerOptions configures a Logger created by NewLogger. File adds a
// rotated log file that never receives color codes. Writer replaces stderr
// as the terminal output, NoTerminal drops it, e.g. while a TUI owns the
// terminal.
type LoggerOptions struct {
	Level      LogLevel
	File       string
	Rotation   *Rotation
	JSON       bool
	NoColor    bool
	NoTerminal bool
	Writer     io.Writer
}

// Rotation limits the size and age of the log file, see lumberjack.Logger.
type Rotation struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func DefaultRotation() *Rotation {
	return &Rotation{
		MaxSize:    128,
		MaxBackups: 5,
		MaxAge:     16,
	}
}

type sink struct {
	mu    sync.Mutex
	term  io.Writer
	file  *lumberjack.Logger
	json  bool
	color bool
}

// exit is replaced in tests.
var exit = os.Exit

func NewLogger(name string, opts LoggerOptions) *Logger {
	s := &sink{json: opts.JSON}

	switch {
	case opts.Writer != nil:
		s.term = opts.Writer
		s.color = !opts.NoColor
	case !opts.NoTerminal:
		s.term = os.Stderr
		s.color = !opts.NoColor
	}

	if opts.File != "" {
		rotation := opts.Rotation
		if rotation == nil {
			rotation = DefaultRotation()
		}

		s.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    rotation.MaxSize,
			MaxBackups: rotation.MaxBackups,
			MaxAge:     rotation.MaxAge,
			Compress:   rotation.Compress,
		}
	}

	return &Logger{
		name:  name,
		level: opts.Level,
		sink:  s,
	}
}

// NewWriterLogger logs uncolored text lines into w.
func NewWriterLogger(name string, w io.Writer, level LogLevel) *Logger {
	return NewLogger(name, LoggerOptions{
		Level:   level,
		Writer:  w,
		NoColor: true,
	})
}

// Discard returns a logger that drops every message.
func Discard() *Logger {
	return NewLogger("", LoggerOptions{Level: Off, NoTerminal: true})
}

func (l *Logger) Name() string {
	return l.name
}

func (l *Logger) Level() LogLevel {
	return l.level
}

// Named returns a logger for a sub component, e.g. "serverx/editor".
func (l *Logger) Named(name string) *Logger {
	if l.name != "" {
		name = l.name + "/" + name
	}

	return &Logger{
		name:  name,
		level: l.level,
		sink:  l.sink,
	}
}

// Close releases the rotating log file, if any. Named loggers share it.
func (l *Logger) Close() error {
	if l.sink.file == nil {
		return nil
	}

	return l.sink.file.Close()
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(Debug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(Info, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(Warn, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(Error, msg, args...)
}

// Fatal logs and terminates the process.
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(Fatal, msg, args...)
	exit(1)
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if level < l.level {
		return
	}

	l.sink.write(level, record{
		Timestamp: time.Now().Format(timeFormat),
		Level:     level.String(),
		Service:   l.name,
		Message:   fmt.Sprintf(msg, args...),
	})
}

func (s *sink) write(level LogLevel, r record) {
	if s.term == nil && s.file == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.json {
		line := encodeJSON(r)
		if s.term != nil {
			s.term.Write(line)
		}
		if s.file != nil {
			s.file.Write(line)
		}
		return
	}

	if s.term != nil {
		s.term.Write(encodeText(r, level, s.color))
	}
	if s.file != nil {
		s.file.Write(encodeText(r, level, false))
	}
}
