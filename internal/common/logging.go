package common

import (
	"io"
	"log"
	"os"
)

var logger = log.New(os.Stderr, "[fhgen] ", log.LstdFlags|log.Lmicroseconds)

// SetOutput redirects the package logger, used by the CLI to attach a
// rotating log file in addition to stderr.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Logf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}
