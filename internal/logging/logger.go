// Package logging provides the shared zap logger of setgeistd and
// setgeistctl. Outputs and level come from the registered *Config.
package logging

import (
	"os"

	"github.com/mfulz/setgeist/internal/configloader"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the "log" section of the daemon and client config files.
type Config struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	ToStdout   bool   `mapstructure:"to_stdout"`   // log to stdout
	ToStderr   bool   `mapstructure:"to_stderr"`   // log to stderr
	ToFile     bool   `mapstructure:"to_file"`     // log to FilePath
	FilePath   string `mapstructure:"file"`        // e.g. /var/log/setgeistd.log
	MaxSizeMB  int    `mapstructure:"max_size"`    // rotate after this many MB
	MaxAge     int    `mapstructure:"max_age"`     // days to keep rotated files
	MaxBackups int    `mapstructure:"max_backups"` // rotated files to keep
	Compress   bool   `mapstructure:"compress"`    // gzip rotated files
}

// DefaultConfig logs info and above to stdout.
func DefaultConfig() *Config {
	return &Config{Level: "info", ToStdout: true}
}

// Log is the global sugared logger.
var Log *zap.SugaredLogger

// New builds a logger for cfg. An unknown level falls back to info and
// no enabled output falls back to stdout.
func New(cfg *Config) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel
	_ = level.Set(cfg.Level)

	var cores []zapcore.Core
	if cfg.ToStdout {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}
	if cfg.ToStderr {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level))
	}
	if cfg.ToFile && cfg.FilePath != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoder, writer, level))
	}
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// Init rebuilds Log from the registered *Config, registering the default
// config first when none is present.
func Init() error {
	cfg, ok := configloader.TryGetConfig[*Config]()
	if !ok {
		cfg = DefaultConfig()
		configloader.SetConfig(cfg)
	}
	if Log != nil {
		_ = Log.Sync()
	}
	Log = New(cfg)
	return nil
}

func init() {
	_ = Init()
}
