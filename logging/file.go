package logging

import (
	"io"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger returns a logger that writes to stdout like NewLogger and also appends JSON lines to
// a rotated log file at path. The returned closer flushes and closes the file.
func NewFileLogger(name, path string, level Level) (Logger, io.Closer) {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64,
		MaxBackups: 2,
		Compress:   true,
	}
	encoderCfg := NewEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), zapcore.DebugLevel)
	return newImpl(name, level, zapcore.NewTee(stdoutCore(), fileCore)), file
}
