// Package audit writes a structured trail of masking activity. Events carry
// counts, languages and request IDs only; source text is never logged.
package audit

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/hfi/secure-mask/internal/config"
)

// EventType represents the type of audit event
type EventType string

const (
	EventMaskCompleted      EventType = "mask_completed"
	EventMaskFailed         EventType = "mask_failed"
	EventEmptyInput         EventType = "empty_input"
	EventRequestProcessed   EventType = "request_processed"
	EventCacheHit           EventType = "cache_hit"
	EventPlaceholdersIssued EventType = "placeholders_issued"
)

// Event represents an audit log event
type Event struct {
	Type      EventType
	RequestID string
	Language  string
	Category  string
	Method    string
	Path      string
	Count     int
	Bytes     int
	Duration  float64
	Error     string
	Metadata  map[string]string
}

// Config holds audit logger configuration
type Config struct {
	// Enabled enables/disables audit logging
	Enabled bool

	// Level controls what events are logged
	// "minimal" - only mask outcomes
	// "standard" - outcomes + API request events
	// "verbose" - all events including cache hits and per-category counts
	Level string

	// Output specifies where to write logs
	// "stdout", "stderr", or a file path
	Output string

	// Format specifies log format: "json" or "text"
	Format string

	// IncludeRequestDetails includes the request path in logs
	IncludeRequestDetails bool
}

// DefaultConfig returns the default audit configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:               true,
		Level:                 "standard",
		Output:                "stdout",
		Format:                "json",
		IncludeRequestDetails: false,
	}
}

// FromConfig converts the logging.audit section of the application config
func FromConfig(c config.AuditConfig) *Config {
	return &Config{
		Enabled:               c.Enabled,
		Level:                 c.Level,
		Output:                c.Output,
		Format:                c.Format,
		IncludeRequestDetails: c.IncludeRequestDetails,
	}
}

// Auditor is implemented by Logger and NopLogger
type Auditor interface {
	Log(event *Event)
	LogMaskCompleted(requestID, language string, placeholders, bytes int, durationMs float64)
	LogMaskFailed(requestID, language, errorMsg string)
	LogEmptyInput(requestID string)
	LogCacheHit(requestID, language string)
	LogPlaceholdersIssued(requestID, category string, count int)
	LogRequestProcessed(requestID, method, path string, durationMs float64)
	Close() error
}

// Logger handles audit logging
type Logger struct {
	mu      sync.RWMutex
	config  *Config
	logger  *slog.Logger
	output  io.Writer
	enabled bool
}

// NewLogger creates a new audit logger
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &Logger{
		config:  cfg,
		enabled: cfg.Enabled,
	}

	if err := l.setupOutput(); err != nil {
		return nil, err
	}

	return l, nil
}

func (l *Logger) setupOutput() error {
	var output io.Writer

	switch l.config.Output {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		// File output
		f, err := os.OpenFile(l.config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //#nosec G304 -- operator configured audit path
		if err != nil {
			return err
		}
		output = f
	}

	l.output = output

	var handler slog.Handler
	if l.config.Format == "json" {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	l.logger = slog.New(handler)
	return nil
}

// Log logs an audit event
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	enabled := l.enabled
	level := l.config.Level
	details := l.config.IncludeRequestDetails
	logger := l.logger
	l.mu.RUnlock()

	if !enabled || logger == nil {
		return
	}

	if !shouldLog(level, event.Type) {
		return
	}

	if !details {
		event.Path = ""
	}

	attrs := []any{
		slog.String("type", string(event.Type)),
	}

	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	if event.Language != "" {
		attrs = append(attrs, slog.String("language", event.Language))
	}
	if event.Category != "" {
		attrs = append(attrs, slog.String("category", event.Category))
	}
	if event.Method != "" {
		attrs = append(attrs, slog.String("method", event.Method))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.Count > 0 {
		attrs = append(attrs, slog.Int("count", event.Count))
	}
	if event.Bytes > 0 {
		attrs = append(attrs, slog.Int("bytes", event.Bytes))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Float64("duration_ms", event.Duration))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}

	logger.Info("audit", attrs...)
}

func shouldLog(level string, eventType EventType) bool {
	switch level {
	case "minimal":
		return eventType == EventMaskCompleted ||
			eventType == EventMaskFailed ||
			eventType == EventEmptyInput
	case "standard":
		return eventType != EventCacheHit &&
			eventType != EventPlaceholdersIssued
	default:
		return true
	}
}

// LogMaskCompleted logs a successful masking run
func (l *Logger) LogMaskCompleted(requestID, language string, placeholders, bytes int, durationMs float64) {
	l.Log(&Event{
		Type:      EventMaskCompleted,
		RequestID: requestID,
		Language:  language,
		Count:     placeholders,
		Bytes:     bytes,
		Duration:  durationMs,
	})
}

// LogMaskFailed logs a rejected masking run
func (l *Logger) LogMaskFailed(requestID, language, errorMsg string) {
	l.Log(&Event{
		Type:      EventMaskFailed,
		RequestID: requestID,
		Language:  language,
		Error:     errorMsg,
	})
}

// LogEmptyInput logs a request without source text
func (l *Logger) LogEmptyInput(requestID string) {
	l.Log(&Event{
		Type:      EventEmptyInput,
		RequestID: requestID,
	})
}

// LogCacheHit logs a result served from the result store
func (l *Logger) LogCacheHit(requestID, language string) {
	l.Log(&Event{
		Type:      EventCacheHit,
		RequestID: requestID,
		Language:  language,
	})
}

// LogPlaceholdersIssued logs the placeholder count of one category
func (l *Logger) LogPlaceholdersIssued(requestID, category string, count int) {
	l.Log(&Event{
		Type:      EventPlaceholdersIssued,
		RequestID: requestID,
		Category:  category,
		Count:     count,
	})
}

// LogRequestProcessed logs an API request
func (l *Logger) LogRequestProcessed(requestID, method, path string, durationMs float64) {
	l.Log(&Event{
		Type:      EventRequestProcessed,
		RequestID: requestID,
		Method:    method,
		Path:      path,
		Duration:  durationMs,
	})
}

// Close closes the logger
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if closer, ok := l.output.(io.Closer); ok {
		if l.output != os.Stdout && l.output != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}

// NopLogger is a logger that does nothing
type NopLogger struct{}

// NewNopLogger creates a no-op logger
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

// Log does nothing
func (l *NopLogger) Log(_ *Event) {}

// LogMaskCompleted does nothing
func (l *NopLogger) LogMaskCompleted(_, _ string, _, _ int, _ float64) {}

// LogMaskFailed does nothing
func (l *NopLogger) LogMaskFailed(_, _, _ string) {}

// LogEmptyInput does nothing
func (l *NopLogger) LogEmptyInput(_ string) {}

// LogCacheHit does nothing
func (l *NopLogger) LogCacheHit(_, _ string) {}

// LogPlaceholdersIssued does nothing
func (l *NopLogger) LogPlaceholdersIssued(_, _ string, _ int) {}

// LogRequestProcessed does nothing
func (l *NopLogger) LogRequestProcessed(_, _, _ string, _ float64) {}

// Close does nothing
func (l *NopLogger) Close() error { return nil }
