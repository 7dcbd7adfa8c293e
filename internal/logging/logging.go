// Package logging provides the leveled console logger used across the
// service.
package logging

import (
	"log"
	"os"
)

// Logger is a simple leveled logger that writes to the console.
type Logger struct {
	*log.Logger
}

// NewLogger creates a new Logger.
func NewLogger() *Logger {
	return &Logger{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.Printf("INFO: "+format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Printf("WARN: "+format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.Printf("ERROR: "+format, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Printf("DEBUG: "+format, args...)
}
