package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

var (
	// InfoLogger logs informational messages
	InfoLogger *log.Logger
	// ErrorLogger logs error messages
	ErrorLogger *log.Logger
	// DebugLogger logs debug messages
	DebugLogger *log.Logger
)

// InitLogger opens the day's info, error and debug files under logsDir.
// Info and error lines are also written to stdout.
func InitLogger(logsDir string) error {
	if logsDir == "" {
		logsDir = "logs"
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %v", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	infoFile, err := openLogFile(logsDir, "info", timestamp)
	if err != nil {
		return err
	}
	errorFile, err := openLogFile(logsDir, "error", timestamp)
	if err != nil {
		return err
	}
	debugFile, err := openLogFile(logsDir, "debug", timestamp)
	if err != nil {
		return err
	}

	flags := log.Ldate | log.Ltime | log.Lshortfile
	InfoLogger = log.New(io.MultiWriter(infoFile, os.Stdout), "INFO: ", flags)
	ErrorLogger = log.New(io.MultiWriter(errorFile, os.Stderr), "ERROR: ", flags)
	DebugLogger = log.New(debugFile, "DEBUG: ", flags)

	return nil
}

func openLogFile(dir, level, timestamp string) (*os.File, error) {
	f, err := os.OpenFile(
		filepath.Join(dir, fmt.Sprintf("%s-%s.log", level, timestamp)),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s log file: %v", level, err)
	}
	return f, nil
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	if InfoLogger != nil {
		InfoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	if DebugLogger != nil {
		DebugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// LogRequest logs HTTP request details
func LogRequest(requestID, method, path, ip string, status int, duration time.Duration) {
	LogInfo("Request[%s]: %s %s from %s - Status: %d - Duration: %v", requestID, method, path, ip, status, duration)
}

// LogErrorWithStack logs an error with stack trace
func LogErrorWithStack(err error, stack []byte) {
	if ErrorLogger != nil {
		ErrorLogger.Printf("Error: %v\nStack Trace:\n%s", err, stack)
	}
}
