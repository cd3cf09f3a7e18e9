// Package logging configures the shared logrus logger for the login tool and provides
// Gin middleware for the callback server. Log output goes to stderr, or to a rotating
// file when one is configured, so stdout stays reserved for user-facing output.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/spacetime-oidc-login/internal/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	setupOnce sync.Once
	writerMu  sync.Mutex
	logWriter *lumberjack.Logger
)

// LogFormatter renders entries as a bracketed header followed by the message and a
// fixed selection of fields.
// Format: [2025-12-23 20:14:04] [debug] [oauth_server.go:120] Stopping OAuth callback server session=a1b2c3d4
type LogFormatter struct{}

// logFieldOrder lists the fields printed after the message, in order. Other fields
// are dropped so recovered panics and stray data do not flood the terminal.
var logFieldOrder = []string{sessionField, "status", "method", "path", "field", "error"}

// Format renders a single log entry.
func (m *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	buffer := entry.Buffer
	if buffer == nil {
		buffer = &bytes.Buffer{}
	}

	level := entry.Level.String()
	if entry.Level == log.WarnLevel {
		level = "warn"
	}

	fmt.Fprintf(buffer, "[%s] [%-5s] ", entry.Time.Format("2006-01-02 15:04:05"), level)
	if entry.Caller != nil {
		fmt.Fprintf(buffer, "[%s:%d] ", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	buffer.WriteString(strings.TrimRight(entry.Message, "\r\n"))

	for _, key := range logFieldOrder {
		value, ok := entry.Data[key]
		if !ok {
			continue
		}
		buffer.WriteByte(' ')
		buffer.WriteString(key)
		buffer.WriteByte('=')
		buffer.WriteString(formatFieldValue(value))
	}
	buffer.WriteByte('\n')

	return buffer.Bytes(), nil
}

// formatFieldValue quotes values that would otherwise be ambiguous in key=value output.
func formatFieldValue(value interface{}) string {
	text := fmt.Sprint(value)
	if text == "" || strings.ContainsAny(text, " \t\"=") {
		return strconv.Quote(text)
	}
	return text
}

// SetupBaseLogger configures the shared logrus instance and routes Gin's own output
// through it. It is safe to call multiple times; initialization happens only once.
func SetupBaseLogger() {
	setupOnce.Do(func() {
		log.SetOutput(os.Stderr)
		log.SetReportCaller(true)
		log.SetFormatter(&LogFormatter{})
		log.SetLevel(log.InfoLevel)

		gin.DefaultWriter = log.StandardLogger().WriterLevel(log.DebugLevel)
		gin.DefaultErrorWriter = log.StandardLogger().WriterLevel(log.ErrorLevel)
		gin.DebugPrintFunc = func(format string, values ...interface{}) {
			format = strings.TrimRight(format, "\r\n")
			log.StandardLogger().Debugf(format, values...)
		}

		log.RegisterExitHandler(CloseLogOutputs)
	})
}

// ConfigureLogOutput applies the level and destination from cfg. With cfg.LogFile set,
// entries go to a size-rotated file; otherwise they go to stderr.
func ConfigureLogOutput(cfg *config.Config) error {
	SetupBaseLogger()

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	writerMu.Lock()
	defer writerMu.Unlock()

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}

	if cfg.LogFile == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	if dir := filepath.Dir(cfg.LogFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.SetOutput(os.Stderr)
			return fmt.Errorf("logging: failed to create log directory: %w", err)
		}
	}
	logWriter = &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     0,
		Compress:   false,
	}
	log.SetOutput(logWriter)
	return nil
}

// CloseLogOutputs flushes and closes the rotating log file, if any.
func CloseLogOutputs() {
	writerMu.Lock()
	defer writerMu.Unlock()

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
}
