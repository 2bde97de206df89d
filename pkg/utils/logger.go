package utils

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel уровень логирования
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Logger структура логгера поверх logrus
type Logger struct {
	entry *logrus.Entry
	level LogLevel
}

// NewLogger создает новый логгер
func NewLogger(level, format string) *Logger {
	return NewLoggerWithOutput(level, format, os.Stdout)
}

// NewLoggerWithOutput создает логгер, пишущий в указанный writer
func NewLoggerWithOutput(level, format string, out io.Writer) *Logger {
	logLevel := parseLevel(level)

	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(toLogrusLevel(logLevel))
	if strings.ToLower(format) == "json" {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	// Информация о вызывающем коде только в debug режиме
	base.SetReportCaller(logLevel <= DebugLevel)

	return &Logger{
		entry: logrus.NewEntry(base),
		level: logLevel,
	}
}

func parseLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Level возвращает текущий уровень логирования
func (l *Logger) Level() LogLevel {
	return l.level
}

// Entry возвращает logrus entry для компонентов, работающих с logrus напрямую
func (l *Logger) Entry() *logrus.Entry {
	return l.entry
}

// WithField добавляет поле к логгеру
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value), level: l.level}
}

// WithFields добавляет несколько полей к логгеру
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields)), level: l.level}
}

// WithError добавляет ошибку к логгеру
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err), level: l.level}
}

// WithContext добавляет контекст к записи
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{entry: l.entry.WithContext(ctx), level: l.level}
}

// Debug логирует сообщение уровня debug
func (l *Logger) Debug(msg string) {
	l.entry.Debug(msg)
}

// Debugf логирует форматированное сообщение уровня debug
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info логирует сообщение уровня info
func (l *Logger) Info(msg string) {
	l.entry.Info(msg)
}

// Infof логирует форматированное сообщение уровня info
func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn логирует сообщение уровня warn
func (l *Logger) Warn(msg string) {
	l.entry.Warn(msg)
}

// Warnf логирует форматированное сообщение уровня warn
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error логирует сообщение уровня error
func (l *Logger) Error(msg string) {
	l.entry.Error(msg)
}

// Errorf логирует форматированное сообщение уровня error
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Fatal логирует сообщение уровня fatal и завершает программу
func (l *Logger) Fatal(msg string) {
	l.entry.Fatal(msg)
}

// Fatalf логирует форматированное сообщение уровня fatal и завершает программу
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}

// Default logger instance
var defaultLogger = NewLogger("info", "text")

// DefaultLogger возвращает логгер по умолчанию
func DefaultLogger() *Logger {
	return defaultLogger
}

// SetDefaultLogger устанавливает логгер по умолчанию
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// Debug логирует сообщение уровня debug
func Debug(msg string) {
	defaultLogger.Debug(msg)
}

// Info логирует сообщение уровня info
func Info(msg string) {
	defaultLogger.Info(msg)
}

// Infof логирует форматированное сообщение уровня info
func Infof(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

// Warn логирует сообщение уровня warn
func Warn(msg string) {
	defaultLogger.Warn(msg)
}

// Error логирует сообщение уровня error
func Error(msg string) {
	defaultLogger.Error(msg)
}

// Errorf логирует форматированное сообщение уровня error
func Errorf(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// Fatal логирует сообщение уровня fatal и завершает программу
func Fatal(msg string) {
	defaultLogger.Fatal(msg)
}
