package main

import (
	"io"
	"log"
	"os"

	"github.com/cbegin/abcscore-go/internal/diag"
)

var (
	errorLogger *log.Logger
	warnLogger  *log.Logger
	debugLogger *log.Logger
)

func setupLogging(debug bool) {
	setupLoggingTo(os.Stderr, debug)
}

func setupLoggingTo(w io.Writer, debug bool) {
	errorLogger = log.New(w, "error: ", 0)
	warnLogger = log.New(w, "warning: ", 0)
	log.SetOutput(errorLogger.Writer())
	debugLogger = nil
	if debug {
		debugLogger = log.New(w, "debug: ", log.Ltime|log.Lmicroseconds)
	}
}

func logError(format string, v ...interface{}) {
	if errorLogger != nil {
		errorLogger.Printf(format, v...)
	}
}

func logWarn(format string, v ...interface{}) {
	if warnLogger != nil {
		warnLogger.Printf(format, v...)
	}
}

func logDebug(format string, v ...interface{}) {
	if debugLogger != nil {
		debugLogger.Printf(format, v...)
	}
}

// logDiagnostic prints d as file:line:char: message on the logger for its
// severity.
func logDiagnostic(name string, d diag.Diagnostic) {
	logf := logWarn
	if d.Severity == diag.SeverityError {
		logf = logError
	}
	logf("%s:%d:%d: %s", name, d.Range.Start.Line+1, d.Range.Start.Char+1, d.Message)
}
