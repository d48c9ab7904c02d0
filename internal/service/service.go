// Package service coordinates a masking request: input checks, the result
// cache, the engine, metrics and the audit trail.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hfi/secure-mask/internal/audit"
	"github.com/hfi/secure-mask/internal/masking"
	"github.com/hfi/secure-mask/internal/metrics"
	"github.com/hfi/secure-mask/internal/storage"
	"github.com/hfi/secure-mask/pkg/placeholder"
)

// ErrEmptyInput is returned when the source is empty after trimming
var ErrEmptyInput = errors.New("input code is empty")

// EmptyInputError reports a request without source text
type EmptyInputError struct {
	RequestID string
}

func (e *EmptyInputError) Error() string {
	return ErrEmptyInput.Error()
}

// Is matches ErrEmptyInput
func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// unsupportedLabel replaces client supplied language names the engine does not know
const unsupportedLabel = "unsupported"

// Masker is the engine surface the service depends on
type Masker interface {
	MaskWithStats(source, language string) (*masking.Result, error)
	Passes(language string) ([]string, error)
	Supports(language string) bool
	Languages() []string
}

// Request is one masking request
type Request struct {
	// Source is the code to mask. Surrounding whitespace is trimmed.
	Source string
	// Language selects the pattern table. Empty means the service default.
	Language string
	// RequestID is generated when empty
	RequestID string
}

// Response contains the result of processing a request
type Response struct {
	Masked    string
	Language  string
	RequestID string
	// Cached is true when the result came from the result store
	Cached bool
	// Counts is nil for cached results
	Counts map[placeholder.Category]int
}

// MaskService coordinates masking, caching and observability
type MaskService struct {
	engine          Masker
	store           storage.ResultStore
	auditor         audit.Auditor
	logger          zerolog.Logger
	defaultLanguage string
}

// Option configures a MaskService
type Option func(*MaskService)

// WithStore enables the result cache
func WithStore(store storage.ResultStore) Option {
	return func(s *MaskService) { s.store = store }
}

// WithAuditor sets the audit trail
func WithAuditor(a audit.Auditor) Option {
	return func(s *MaskService) { s.auditor = a }
}

// WithLogger sets the operational logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *MaskService) { s.logger = l }
}

// WithDefaultLanguage sets the language used when a request names none
func WithDefaultLanguage(lang string) Option {
	return func(s *MaskService) { s.defaultLanguage = lang }
}

// New creates a new mask service
func New(engine Masker, opts ...Option) *MaskService {
	s := &MaskService{
		engine:          engine,
		store:           storage.NopStore{},
		auditor:         audit.NewNopLogger(),
		logger:          zerolog.Nop(),
		defaultLanguage: "Java",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Languages returns the languages the engine supports
func (s *MaskService) Languages() []string {
	return s.engine.Languages()
}

// Process masks one request. Cache failures are logged and never fail the request.
func (s *MaskService) Process(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	language := req.Language
	if language == "" {
		language = s.defaultLanguage
	}
	log := s.logger.With().Str("request_id", requestID).Str("language", language).Logger()

	// Metric labels only ever carry known languages
	label := language
	if !s.engine.Supports(language) {
		label = unsupportedLabel
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		metrics.RecordMask(label, "empty")
		s.auditor.LogEmptyInput(requestID)
		log.Warn().Msg("rejected empty input")
		return nil, &EmptyInputError{RequestID: requestID}
	}

	// Results are keyed by the passes that ran, so a config change never serves stale output
	var key string
	if passes, err := s.engine.Passes(language); err == nil {
		key = storage.Key(language, strings.Join(passes, ","), source)
	}
	if masked, ok := s.lookup(key); ok {
		metrics.RecordMask(label, "cached")
		metrics.CacheHitsTotal.Inc()
		s.auditor.LogCacheHit(requestID, language)
		log.Debug().Msg("served from result cache")
		return &Response{
			Masked:    masked,
			Language:  language,
			RequestID: requestID,
			Cached:    true,
		}, nil
	}

	start := time.Now()
	res, err := s.engine.MaskWithStats(source, language)
	elapsed := time.Since(start)
	if err != nil {
		status := "error"
		if masking.IsUnsupportedLanguage(err) {
			status = "unsupported"
		}
		metrics.RecordMask(label, status)
		s.auditor.LogMaskFailed(requestID, language, err.Error())
		log.Error().Err(err).Msg("masking failed")
		return nil, err
	}

	metrics.RecordMask(label, "ok")
	metrics.RecordMaskDuration(label, elapsed.Seconds())
	for _, cat := range placeholder.SortedCategories(res.Counts) {
		metrics.RecordPlaceholders(string(cat), res.Counts[cat])
		s.auditor.LogPlaceholdersIssued(requestID, string(cat), res.Counts[cat])
	}
	s.auditor.LogMaskCompleted(requestID, language, res.Total(), len(source), float64(elapsed.Microseconds())/1000)

	if key != "" {
		if err := s.store.Store(key, res.Text); err != nil {
			log.Warn().Err(err).Msg("failed to cache masked result")
		}
	}

	log.Info().
		Int("placeholders", res.Total()).
		Dur("duration", elapsed).
		Msg("masked source")

	return &Response{
		Masked:    res.Text,
		Language:  res.Language,
		RequestID: requestID,
		Counts:    res.Counts,
	}, nil
}

func (s *MaskService) lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	return s.store.Lookup(key)
}
