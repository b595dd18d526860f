package pipeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stage names used in events.
const (
	StageLoad    = "load"
	StageClean   = "clean"
	StageLabel   = "normalize"
	StageStore   = "store"
	StageKPI     = "kpi"
	StageAnomaly = "anomaly"
	StageTrain   = "train"
	StageChart   = "chart"
)

// Level grades an event.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
)

// Event is one progress record emitted by a stage.
type Event struct {
	RunID    string
	Stage    string
	Level    Level
	Msg      string
	Counts   map[string]int
	Duration time.Duration
}

// Sink receives events in emission order.
type Sink interface {
	Emit(Event)
}

// ZapSink writes events as structured log entries.
type ZapSink struct {
	Logger *zap.Logger
}

// Emit implements Sink.
func (s ZapSink) Emit(e Event) {
	if s.Logger == nil {
		return
	}
	fields := []zap.Field{zap.String("run_id", e.RunID), zap.String("stage", e.Stage)}
	keys := make([]string, 0, len(e.Counts))
	for k := range e.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Int(k, e.Counts[k]))
	}
	if e.Duration > 0 {
		fields = append(fields, zap.Duration("duration", e.Duration))
	}
	if e.Level == LevelWarn {
		s.Logger.Warn(e.Msg, fields...)
		return
	}
	s.Logger.Info(e.Msg, fields...)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Stage returns the recorded events for one stage.
func (r *Recorder) Stage(name string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Stage == name {
			out = append(out, e)
		}
	}
	return out
}

// Multi fans events out to several sinks.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// NewLogger builds a zap logger writing to stderr in console or json format.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var cfg zap.Config
	switch format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableCaller = true
	return cfg.Build()
}
