// Package logger holds the process-wide structured logger.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Log is safe to use before Init; it discards everything until then.
var Log = zap.NewNop()

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Init replaces Log with a console logger when attached to a terminal and a
// JSON logger otherwise.
func Init() {
	var config zap.Config
	if term.IsTerminal(int(os.Stdout.Fd())) {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = level

	built, err := config.Build()
	if err != nil {
		// Keep the nop logger, there is nowhere to report to yet.
		return
	}
	Log = built
}

// SetLevel changes the minimum level of the logger built by Init.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
