package logging

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

var (
	debugLogger *log.Logger
	logFile     *os.File
	mu          sync.Mutex
	isSetup     bool
)

// SetupLogger initializes the file logger with the specified log file
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	debugLogger = log.New(logFile, "", log.LstdFlags)
	debugLogger.Printf("--- ichprep log started at %s ---\n", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		debugLogger.Printf("--- ichprep log closed at %s ---\n", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		debugLogger = nil
		isSetup = false
	}
}

// Level prefixes a log line
type Level string

const (
	LevelDebug   Level = ""
	LevelInfo    Level = "INFO: "
	LevelWarning Level = "WARNING: "
	LevelError   Level = "ERROR: "
)

// Logf writes one line at level. Without a log file, debug lines are dropped
// and everything else goes to the standard logger.
func Logf(level Level, format string, args ...interface{}) {
	mu.Lock()
	if debugLogger != nil {
		debugLogger.Printf(string(level)+format, args...)
		mu.Unlock()
		return
	}
	mu.Unlock()

	if level != LevelDebug {
		log.Printf(string(level)+format, args...)
	}
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) { Logf(LevelInfo, format, args...) }

// DebugLog logs a message if a log file is set up
func DebugLog(format string, args ...interface{}) { Logf(LevelDebug, format, args...) }

// LogError logs an error message
func LogError(format string, args ...interface{}) { Logf(LevelError, format, args...) }

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) { Logf(LevelWarning, format, args...) }

// LogSliceChecked records the outcome of a slice check in the log file
func LogSliceChecked(path string, usable bool, reason string) {
	if usable {
		Logf(LevelDebug, "USABLE: %s", path)
		return
	}
	Logf(LevelDebug, "FLAGGED: %s - Reason: %s", path, reason)
}
