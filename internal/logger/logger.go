package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu            sync.Mutex
	isDevelopment = false
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// GetLogger returns a logger tagged with the given service name. In
// development mode the output is a human-readable console writer, otherwise
// structured JSON on stderr.
func GetLogger(serviceName string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if !isDevelopment {
		return zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i any) string {
			return strings.ToUpper(fmt.Sprintf("[%5s]", i))
		},
	}
	return zerolog.New(consoleWriter).Level(zerolog.TraceLevel).With().Timestamp().Str("service", serviceName).Caller().Logger()
}

// SetDevelopment switches subsequent loggers to console output.
func SetDevelopment(value bool) {
	mu.Lock()
	defer mu.Unlock()
	isDevelopment = value
}
