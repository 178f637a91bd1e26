package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

var nopLogger = &Logger{SugaredLogger: zap.NewNop().Sugar()}

// defaultZapLevel defines the fallback log level when an unknown level string is provided.
const defaultZapLevel = zapcore.DebugLevel

// toZapLevel converts a textual level to zapcore.Level using known level constants.
func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newEncoder picks a JSON encoder for log shippers or a console encoder for humans.
func newEncoder(encoding string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	if encoding == JSONEncoding {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.TimeKey = ""
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// newCore builds a zapcore.Core targeting stdout.
func newCore(level zapcore.Level, encoding string) zapcore.Core {
	ws := zapcore.Lock(os.Stdout) // thread-safe writer
	return zapcore.NewCore(newEncoder(encoding), zapcore.AddSync(ws), zap.NewAtomicLevelAt(level))
}

// newZapLogger constructs a sugared zap logger with the provided level and encoding.
func newZapLogger(levelStr, encoding string) *Logger {
	core := newCore(toZapLevel(levelStr), encoding)
	return &Logger{
		SugaredLogger: zap.New(core, zap.AddCaller()).Sugar(),
	}
}
