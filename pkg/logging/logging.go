// Package logging builds the zap logger used by the SDK and its tools.
//
// The default global logger (installed by package client at init) writes a
// console stream only. Applications that want the persistent log files the
// platform tools keep can install a richer logger:
//
//	undo, err := logging.Install(logging.Options{Dir: logging.DefaultDir(config.DefaultDir())})
//	if err != nil {
//		return err
//	}
//	defer undo()
//
// Files are rotated by lumberjack: instill.log receives every entry at or
// above Level, instill.err.log receives errors only.
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// InfoFile collects entries at or above the configured level.
	InfoFile = "instill.log"
	// ErrorFile collects error entries.
	ErrorFile = "instill.err.log"
)

// Options configures New.
type Options struct {
	// Dir holds the rotated log files. Empty disables file output.
	Dir string
	// Level is the minimum level written. Defaults to info.
	Level zapcore.Level
	// Console also writes to stdout.
	Console bool
	// MaxSizeMB rotates a file once it grows past this size. Defaults to 100.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Defaults to 3.
	MaxBackups int
}

// DefaultDir returns the log directory that sits next to the config file.
func DefaultDir(configDir string) string {
	return filepath.Join(configDir, "logs")
}

// New builds a logger from opts. At least one sink must be enabled.
func New(opts Options) (*zap.Logger, error) {
	if opts.Dir == "" && !opts.Console {
		return nil, errors.New("logging: no output configured")
	}
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 100
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 3
	}

	var cores []zapcore.Core
	if opts.Console {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stdout), opts.Level))
	}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: create %s: %w", opts.Dir, err)
		}
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		info := rotated(filepath.Join(opts.Dir, InfoFile), opts)
		errs := rotated(filepath.Join(opts.Dir, ErrorFile), opts)
		cores = append(cores,
			zapcore.NewCore(enc, info, opts.Level),
			zapcore.NewCore(enc, errs, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= zapcore.ErrorLevel && l >= opts.Level
			})),
		)
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func rotated(path string, opts Options) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB, // megabytes
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	})
}

// Install builds a logger and makes it the zap global. The returned func
// restores the previous global logger.
func Install(opts Options) (func(), error) {
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
	}, nil
}
