// Package logging provides the server's structured-logging sink (built
// on zap, the teacher's own logging library of choice) and the
// sensitive-value redaction the teacher's debug package applies to
// OData credentials, generalized here to MCP request/notification
// params.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the MCP `logging/setLevel` level names (spec.md §6),
// ordered from most to least severe so a numeric comparison selects
// "at or above" a configured minimum.
type Level int

const (
	LevelEmergency Level = iota
	LevelAlert
	LevelCritical
	LevelError
	LevelWarning
	LevelNotice
	LevelInfo
	LevelDebug
)

var levelNames = map[string]Level{
	"emergency": LevelEmergency,
	"alert":     LevelAlert,
	"critical":  LevelCritical,
	"error":     LevelError,
	"warning":   LevelWarning,
	"notice":    LevelNotice,
	"info":      LevelInfo,
	"debug":     LevelDebug,
}

// ParseLevel resolves an MCP logging level name, defaulting to
// LevelInfo for an unrecognized name.
func ParseLevel(name string) Level {
	if l, ok := levelNames[name]; ok {
		return l
	}
	return LevelInfo
}

func (l Level) String() string {
	for name, v := range levelNames {
		if v == l {
			return name
		}
	}
	return "info"
}

// Sink wraps zap for the server's own diagnostic logging (not to be
// confused with the MCP `notifications/message` forwarding the facade
// layer builds on top of it).
type Sink struct {
	logger *zap.SugaredLogger
}

// New builds a Sink at the given minimum level, logging to stderr so
// stdout stays clean for a stdio transport's JSON-RPC framing.
func New(minLevel Level) (*Sink, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(minLevel))

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Sink{logger: logger.Sugar()}, nil
}

// Sugared exposes the underlying *zap.SugaredLogger, which satisfies
// session.Logger directly.
func (s *Sink) Sugared() *zap.SugaredLogger { return s.logger }

// Sync flushes buffered log entries; call on shutdown.
func (s *Sink) Sync() error { return s.logger.Sync() }

func toZapLevel(l Level) zapcore.Level {
	switch {
	case l <= LevelError:
		return zapcore.ErrorLevel
	case l <= LevelWarning:
		return zapcore.WarnLevel
	case l <= LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
