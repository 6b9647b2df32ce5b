// Package log wires zap logging with file rotation for the command line
// tool. The library itself stays silent; only the CLI initializes this.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide sugared logger. Nil until Init runs.
var Logger *zap.SugaredLogger

// Config controls where log output goes and how it rotates.
type Config struct {
	// Filename is the log file path. Empty means stderr only.
	Filename string
	// MaxSize is the size in MB at which the file rotates.
	MaxSize int
	// MaxBackups is how many rotated files to keep.
	MaxBackups int
	// MaxAge is how many days to keep rotated files.
	MaxAge int
	// Compress gzips rotated files.
	Compress bool
	// Level is the minimum level that gets logged.
	Level zapcore.Level
	// Console mirrors file output to stderr.
	Console bool
}

// DefaultConfig returns the rotation and level defaults the CLI starts from.
func DefaultConfig() Config {
	return Config{
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
		Level:      zapcore.InfoLevel,
		Console:    false,
	}
}

// Setup builds the global logger from the given config.
func Setup(config Config) {
	var writeSyncers []zapcore.WriteSyncer

	if config.Filename == "" {
		writeSyncers = append(writeSyncers, zapcore.AddSync(os.Stderr))
	} else {
		writeSyncers = append(writeSyncers, fileWriter(config))
		if config.Console {
			writeSyncers = append(writeSyncers, zapcore.AddSync(os.Stderr))
		}
	}

	core := zapcore.NewCore(
		encoder(),
		zapcore.NewMultiWriteSyncer(writeSyncers...),
		config.Level,
	)
	Logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Init configures the global logger from a file path and a level name.
// An unknown level name falls back to info.
func Init(filename, level string) {
	config := DefaultConfig()
	config.Filename = filename
	if l, err := zapcore.ParseLevel(level); err == nil {
		config.Level = l
	}
	Setup(config)
}

// Close flushes buffered log entries.
func Close() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func encoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func fileWriter(config Config) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.Filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	})
}
