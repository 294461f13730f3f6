package directives

import (
	"time"

	"github.com/rs/zerolog"
)

// Logger receives structured engine log lines. keyvals alternate key, value.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return noopLogger{}
}

func loggerOrNop(logger Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return logger
}

type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger adapts a zerolog.Logger to Logger.
func NewZerologLogger(log zerolog.Logger) Logger {
	return zerologLogger{log: log}
}

func (l zerologLogger) Debug(msg string, keyvals ...any) {
	l.log.Debug().Fields(keyvals).Msg(msg)
}

func (l zerologLogger) Info(msg string, keyvals ...any) {
	l.log.Info().Fields(keyvals).Msg(msg)
}

func (l zerologLogger) Warn(msg string, keyvals ...any) {
	l.log.Warn().Fields(keyvals).Msg(msg)
}

func (l zerologLogger) Error(msg string, keyvals ...any) {
	l.log.Error().Fields(keyvals).Msg(msg)
}

// EvaluatorLogEvent describes one display rule evaluation.
type EvaluatorLogEvent struct {
	Engine    string
	Expr      string
	Component string
	Duration  time.Duration
	Err       error
}

// EvaluatorLogger records display rule evaluations.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// RuleLogger writes each evaluation to logger at debug level. Failures are
// reported separately by the visibility filter.
func RuleLogger(logger Logger) EvaluatorLogger {
	logger = loggerOrNop(logger)
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		logger.Debug("display rule evaluated",
			"engine", event.Engine,
			"rule", event.Expr,
			"component_id", event.Component,
			"duration", event.Duration.String(),
			"failed", event.Err != nil,
		)
	})
}
