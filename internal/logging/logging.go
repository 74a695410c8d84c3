// Package logging owns the process log pipeline: a colorized console
// stream for humans and a JSON-lines file under daily rotation for
// machines. Both sinks receive the same record fields.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/safqa-app/safqagate/internal/model"
	"github.com/safqa-app/safqagate/internal/sanitize"
)

// Lifecycle events. Every request emits exactly one of these.
const (
	EventCompleted        = "request_completed"
	EventValidationFailed = "validation_failed"
	EventFailed           = "request_failed"
)

type Config struct {
	Level        string
	Dir          string
	File         string
	Console      bool
	ConsoleOut   io.Writer
	MaxArchives  int
	RedactFields []string
	OnRotate     func(archivePath string)
}

// Emitter turns request contexts into log records on both sinks.
type Emitter struct {
	logger zerolog.Logger
	san    *sanitize.Sanitizer
	sink   *fileSink
}

var (
	setupMu sync.Mutex
	current *Emitter
)

// Setup builds the process emitter once. A second call returns the
// emitter already in place and installs nothing, so repeated
// initialization cannot duplicate sinks or double-write records.
func Setup(cfg Config) (*Emitter, error) {
	setupMu.Lock()
	defer setupMu.Unlock()
	if current != nil {
		return current, nil
	}

	zerolog.TimestampFieldName = "timestamp"

	if cfg.Dir == "" {
		cfg.Dir = "logs"
	}
	if cfg.File == "" {
		cfg.File = "app.log.json"
	}
	if cfg.MaxArchives <= 0 {
		cfg.MaxArchives = 4
	}
	sink, err := newFileSink(filepath.Join(cfg.Dir, cfg.File), cfg.MaxArchives, cfg.OnRotate)
	if err != nil {
		return nil, err
	}

	writers := []io.Writer{sink}
	if cfg.Console {
		out := cfg.ConsoleOut
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	current = &Emitter{
		logger: zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(level),
		san:    sanitize.New(cfg.RedactFields),
		sink:   sink,
	}
	return current, nil
}

// Close flushes and releases the file sink and allows a later Setup to
// build a fresh emitter.
func Close() error {
	setupMu.Lock()
	defer setupMu.Unlock()
	if current == nil {
		return nil
	}
	err := current.sink.Close()
	current = nil
	return err
}

// Emit writes one record for a lifecycle event to both sinks. The
// record's payload and headers are sanitized here, on the copy that is
// logged, never on the caller's data.
func (e *Emitter) Emit(event string, rec *model.LogRecord) {
	if e == nil || rec == nil {
		return
	}
	rec.Message = event
	rec.Level = levelFor(event).String()
	rec.Timestamp = time.Now().UTC()
	rec.File, rec.Function, rec.Line = callerLocation(2)
	rec.Payload = e.san.Clean(rec.Payload)
	rec.Headers = e.san.CleanHeaders(rec.Headers)
	if rec.Diagnostics == nil {
		rec.Diagnostics = []model.Diagnostic{}
	}

	e.logger.WithLevel(levelFor(event)).EmbedObject(rec).Msg(event)
}

// Sanitizer exposes the emitter's sanitizer for callers that redact
// before handing data elsewhere.
func (e *Emitter) Sanitizer() *sanitize.Sanitizer {
	return e.san
}

func levelFor(event string) zerolog.Level {
	switch event {
	case EventValidationFailed:
		return zerolog.WarnLevel
	case EventFailed:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// callerLocation resolves the emission site skipping skip frames above
// this function.
func callerLocation(skip int) (file, function string, line int) {
	pc, path, line, ok := runtime.Caller(skip)
	if !ok {
		return "", "", 0
	}
	file = filepath.Base(path)
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
		if i := strings.LastIndex(function, "/"); i >= 0 {
			function = function[i+1:]
		}
	}
	return file, function, line
}
