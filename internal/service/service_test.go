package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfi/secure-mask/internal/masking"
	"github.com/hfi/secure-mask/internal/metrics"
	"github.com/hfi/secure-mask/internal/storage"
	"github.com/hfi/secure-mask/pkg/placeholder"
)

const routeSource = `@GetMapping("/users")`

func newEngine(t *testing.T) *masking.Engine {
	t.Helper()
	e, err := masking.New(masking.Options{})
	require.NoError(t, err)
	return e
}

// failingStore caches nothing and fails every write
type failingStore struct {
	storage.NopStore
	stores int
}

func (f *failingStore) Store(_, _ string) error {
	f.stores++
	return errors.New("redis unavailable")
}

// countingMasker records engine calls
type countingMasker struct {
	Masker
	calls int
}

func (c *countingMasker) MaskWithStats(source, language string) (*masking.Result, error) {
	c.calls++
	return c.Masker.MaskWithStats(source, language)
}

func TestProcess(t *testing.T) {
	svc := New(newEngine(t))

	resp, err := svc.Process(context.Background(), Request{Source: routeSource, Language: "Java"})
	require.NoError(t, err)

	assert.Equal(t, `@GetMapping("/getmapping1")`, resp.Masked)
	assert.Equal(t, "Java", resp.Language)
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, 1, resp.Counts[placeholder.Annotation])
}

func TestProcess_TrimsSource(t *testing.T) {
	svc := New(newEngine(t))

	resp, err := svc.Process(context.Background(), Request{Source: "\n  " + routeSource + "  \n", Language: "Java"})
	require.NoError(t, err)
	assert.Equal(t, `@GetMapping("/getmapping1")`, resp.Masked)
}

func TestProcess_EmptyInput(t *testing.T) {
	svc := New(newEngine(t))

	for _, source := range []string{"", "   ", "\n\t\n"} {
		_, err := svc.Process(context.Background(), Request{Source: source, Language: "Java", RequestID: "req-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Equal(t, "input code is empty", err.Error())

		var emptyErr *EmptyInputError
		require.ErrorAs(t, err, &emptyErr)
		assert.Equal(t, "req-1", emptyErr.RequestID)
	}
}

func TestProcess_UnsupportedLanguage(t *testing.T) {
	svc := New(newEngine(t))

	resp, err := svc.Process(context.Background(), Request{Source: routeSource, Language: "Kotlin"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, masking.IsUnsupportedLanguage(err))
	assert.Equal(t, "Kotlin not supported", err.Error())
}

func TestProcess_DefaultLanguage(t *testing.T) {
	svc := New(newEngine(t), WithDefaultLanguage("Java"))

	resp, err := svc.Process(context.Background(), Request{Source: routeSource})
	require.NoError(t, err)
	assert.Equal(t, "Java", resp.Language)
}

func TestProcess_KeepsRequestID(t *testing.T) {
	svc := New(newEngine(t))

	resp, err := svc.Process(context.Background(), Request{Source: routeSource, Language: "Java", RequestID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.RequestID)
}

func TestProcess_CancelledContext(t *testing.T) {
	svc := New(newEngine(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Process(ctx, Request{Source: routeSource, Language: "Java"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_Cache(t *testing.T) {
	store := storage.NewMemoryStore(time.Hour)
	defer store.Close()

	masker := &countingMasker{Masker: newEngine(t)}
	svc := New(masker, WithStore(store))

	first, err := svc.Process(context.Background(), Request{Source: routeSource, Language: "Java"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Process(context.Background(), Request{Source: routeSource, Language: "Java"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Masked, second.Masked)
	assert.Nil(t, second.Counts)

	assert.Equal(t, 1, masker.calls)
	assert.Equal(t, 1, store.Size())
}

func TestProcess_CacheFailureDoesNotFail(t *testing.T) {
	store := &failingStore{}
	svc := New(newEngine(t), WithStore(store))

	resp, err := svc.Process(context.Background(), Request{Source: routeSource, Language: "Java"})
	require.NoError(t, err)
	assert.Equal(t, `@GetMapping("/getmapping1")`, resp.Masked)
	assert.Equal(t, 1, store.stores)
}

func TestProcess_FailuresAreNotCached(t *testing.T) {
	store := storage.NewMemoryStore(time.Hour)
	defer store.Close()
	svc := New(newEngine(t), WithStore(store))

	_, err := svc.Process(context.Background(), Request{Source: routeSource, Language: "Kotlin"})
	require.Error(t, err)
	assert.Equal(t, 0, store.Size())
}

func TestLanguages(t *testing.T) {
	svc := New(newEngine(t))
	assert.Equal(t, []string{"Java"}, svc.Languages())
}

func TestProcess_CacheSeparatesEngineOptions(t *testing.T) {
	store := storage.NewMemoryStore(time.Hour)
	defer store.Close()

	withTypes, err := masking.New(masking.Options{TypeNames: true})
	require.NoError(t, err)

	plain := New(newEngine(t), WithStore(store))
	typed := New(withTypes, WithStore(store))

	source := "public String getName(int id) {"

	first, err := plain.Process(context.Background(), Request{Source: source, Language: "Java"})
	require.NoError(t, err)
	assert.Equal(t, "public String method1(int id) {", first.Masked)

	second, err := typed.Process(context.Background(), Request{Source: source, Language: "Java"})
	require.NoError(t, err)
	assert.False(t, second.Cached, "results of an engine with other passes must not be reused")
	assert.Equal(t, "public Type1 method1(int id) {", second.Masked)

	assert.Equal(t, 2, store.Size())
}

func TestProcess_DisabledPassesChangeCacheKey(t *testing.T) {
	store := storage.NewMemoryStore(time.Hour)
	defer store.Close()

	noMethods, err := masking.New(masking.Options{DisabledPasses: []string{"methods"}})
	require.NoError(t, err)

	source := "public String getName(int id) {"

	_, err = New(noMethods, WithStore(store)).Process(context.Background(), Request{Source: source, Language: "Java"})
	require.NoError(t, err)

	resp, err := New(newEngine(t), WithStore(store)).Process(context.Background(), Request{Source: source, Language: "Java"})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, "public String method1(int id) {", resp.Masked)
}

func TestProcess_UnknownLanguagesShareMetricLabel(t *testing.T) {
	svc := New(newEngine(t))

	// Settle the unsupported series for both outcomes first
	_, _ = svc.Process(context.Background(), Request{Source: routeSource, Language: "warmup"})
	_, _ = svc.Process(context.Background(), Request{Source: " ", Language: "warmup"})
	before := testutil.CollectAndCount(metrics.RequestsTotal)

	for _, lang := range []string{"a1", "a2", "a3", "a4", "a5"} {
		_, err := svc.Process(context.Background(), Request{Source: routeSource, Language: lang})
		require.Error(t, err)
		_, err = svc.Process(context.Background(), Request{Source: "", Language: lang})
		require.Error(t, err)
	}

	assert.Equal(t, before, testutil.CollectAndCount(metrics.RequestsTotal))
}
