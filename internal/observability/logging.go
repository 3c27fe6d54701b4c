package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/vuln-analysis-service/internal/config"
)

// NewLogger creates a structured zap.Logger configured via env settings.
func NewLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: true,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			LevelKey:   "level",
			TimeKey:    "ts",
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(l.String())
			},
			EncodeTime: zapcore.ISO8601TimeEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// NewAnalysisLogger builds the diagnostic logger for pipeline runs. With debug
// logging disabled it returns the base logger unchanged; otherwise it returns
// a debug-level logger that also appends to the configured log file,
// truncating it first when requested. A log file that cannot be opened is a
// warning, never a failure: the pipeline keeps the stdout sink.
func NewAnalysisLogger(base *zap.Logger, cfg config.AnalysisConfig) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if !cfg.DebugLogging {
		return base
	}

	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		MessageKey: "message",
		LevelKey:   "level",
		TimeKey:    "ts",
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(l.String())
		},
		EncodeTime: zapcore.ISO8601TimeEncoder,
	})

	stdoutCore := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zapcore.DebugLevel)

	file, err := analysisLogSink(cfg)
	if err != nil {
		base.Warn("could not open analysis log file", zap.String("log_file", cfg.LogFile), zap.Error(err))
		return zap.New(stdoutCore)
	}

	fileCore := zapcore.NewCore(encoder, zapcore.Lock(file), zapcore.DebugLevel)
	logger := zap.New(zapcore.NewTee(stdoutCore, fileCore))
	logger.Info("analysis log started",
		zap.String("log_file", cfg.LogFile),
		zap.Bool("truncate_on_run", cfg.TruncateLogOnRun))
	return logger
}

var (
	sinkMu sync.Mutex
	sinks  = map[string]*os.File{}
)

// analysisLogSink returns the process-wide file sink for a log path, opening
// it on first use. Concurrent runs share one descriptor, and truncate-on-run
// applies to that first open only.
func analysisLogSink(cfg config.AnalysisConfig) (*os.File, error) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if file, ok := sinks[cfg.LogFile]; ok {
		return file, nil
	}
	file, err := openLogFile(cfg)
	if err != nil {
		return nil, err
	}
	sinks[cfg.LogFile] = file
	return file, nil
}

func openLogFile(cfg config.AnalysisConfig) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if cfg.TruncateLogOnRun {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	file, err := os.OpenFile(cfg.LogFile, flags, 0o644)
	if err != nil {
		return nil, err
	}
	if cfg.TruncateLogOnRun {
		banner := fmt.Sprintf("=== Analysis log started at %s ===\n", time.Now().Format(time.RFC3339))
		if _, err := file.WriteString(banner); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return file, nil
}
