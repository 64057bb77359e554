package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"nexu/internal/cache"
	"nexu/internal/core"
)

func summary(income int64) core.MonthlySummary {
	return core.MonthlySummary{
		TotalIncome:   decimal.NewFromInt(income),
		TotalExpenses: decimal.NewFromInt(1300),
		PaidExpenses:  decimal.Zero,
		CardTotal:     decimal.NewFromInt(100),
		Balance:       decimal.NewFromInt(income - 1300),
	}
}

type fakeGenerator struct {
	calls atomic.Int32
	tips  []string
	err   error
	delay time.Duration
}

func (f *fakeGenerator) Generate(context.Context, core.MonthlySummary) ([]string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.tips, nil
}

func newMemoryStore() *MemoryStore {
	return NewMemoryStore(cache.NewLRUCache[[]string](10, time.Hour))
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key(summary(5000)), Key(summary(5000)))
	assert.NotEqual(t, Key(summary(5000)), Key(summary(5001)))
	assert.Len(t, Key(summary(1)), 64)
}

func TestDefaultInsights(t *testing.T) {
	got := DefaultInsights()
	assert.GreaterOrEqual(t, len(got), 3)
	got[0] = "changed"
	assert.NotEqual(t, "changed", DefaultInsights()[0])
	assert.Equal(t, DefaultInsights(), StaticAdvisor{}.Advise(context.Background(), summary(1)))
}

func TestCachedAdvisorCachesGenerated(t *testing.T) {
	gen := &fakeGenerator{tips: []string{"a", "b", "c"}}
	adv := NewCachedAdvisor(gen, newMemoryStore(), time.Hour, nil, nil)

	ctx := context.Background()
	assert.Equal(t, []string{"a", "b", "c"}, adv.Advise(ctx, summary(5000)))
	assert.Equal(t, []string{"a", "b", "c"}, adv.Advise(ctx, summary(5000)))
	assert.Equal(t, int32(1), gen.calls.Load())

	adv.Advise(ctx, summary(4000))
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestCachedAdvisorFallbackNotCached(t *testing.T) {
	gen := &fakeGenerator{err: genai.APIError{Code: http.StatusTooManyRequests, Message: "Resource exhausted", Status: "RESOURCE_EXHAUSTED"}}
	adv := NewCachedAdvisor(gen, newMemoryStore(), time.Hour, nil, nil)

	ctx := context.Background()
	assert.Equal(t, DefaultInsights(), adv.Advise(ctx, summary(5000)))
	assert.Equal(t, DefaultInsights(), adv.Advise(ctx, summary(5000)))
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestCachedAdvisorDisabledStore(t *testing.T) {
	gen := &fakeGenerator{tips: []string{"x"}}
	adv := NewCachedAdvisor(gen, nil, time.Hour, nil, nil)

	ctx := context.Background()
	adv.Advise(ctx, summary(1))
	adv.Advise(ctx, summary(1))
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestCachedAdvisorCollapsesConcurrentCalls(t *testing.T) {
	gen := &fakeGenerator{tips: []string{"x"}, delay: 50 * time.Millisecond}
	adv := NewCachedAdvisor(gen, newMemoryStore(), time.Hour, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"x"}, adv.Advise(context.Background(), summary(7)))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestCachedAdvisorWarm(t *testing.T) {
	gen := &fakeGenerator{tips: []string{"x"}}
	adv := NewCachedAdvisor(gen, newMemoryStore(), time.Hour, nil, nil)

	assert.True(t, adv.Warm(context.Background(), summary(9)))
	assert.False(t, adv.Warm(context.Background(), summary(9)))
	assert.Equal(t, int32(1), gen.calls.Load())
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]string, bool, error) {
	return nil, false, errors.New("database is locked")
}

func (brokenStore) Set(context.Context, string, []string, time.Duration) error {
	return errors.New("database is locked")
}

func TestCachedAdvisorSurvivesStoreErrors(t *testing.T) {
	gen := &fakeGenerator{tips: []string{"x"}}
	adv := NewCachedAdvisor(gen, brokenStore{}, time.Hour, nil, nil)
	assert.Equal(t, []string{"x"}, adv.Advise(context.Background(), summary(1)))
}

func TestTieredStorePromotes(t *testing.T) {
	ctx := context.Background()
	fast, shared := newMemoryStore(), newMemoryStore()
	tiered := NewTieredStore(fast, shared, time.Minute)

	require.NoError(t, shared.Set(ctx, "k", []string{"v"}, time.Hour))
	got, ok, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"v"}, got)

	_, ok, _ = fast.Get(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, tiered.Set(ctx, "n", []string{"w"}, time.Hour))
	_, ok, _ = shared.Get(ctx, "n")
	assert.True(t, ok)
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, IsQuotaError(genai.APIError{Code: 429}))
	assert.True(t, IsQuotaError(fmt.Errorf("generate content: %w", &genai.APIError{Code: 429})))
	assert.False(t, IsQuotaError(genai.APIError{Code: 500, Message: "internal"}))
	assert.True(t, IsQuotaError(errors.New("rpc error: RESOURCE_EXHAUSTED")))
	assert.False(t, IsQuotaError(errors.New("connection refused")))
	assert.False(t, IsQuotaError(nil))
}

func newGeminiServer(t *testing.T, handler http.HandlerFunc) *GeminiAdvisor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	adv, err := NewGeminiAdvisor(context.Background(), GeminiConfig{
		APIKey:     "test-key",
		Model:      "gemini-test",
		Timeout:    2 * time.Second,
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	}, nil)
	require.NoError(t, err)
	return adv
}

func TestGeminiAdvisorParsesResponse(t *testing.T) {
	var prompt string
	adv := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			prompt = body.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[\"Corte gastos\", \" \", \"Poupe 10%\"]"}]}}]}`))
	})

	got := adv.Advise(context.Background(), summary(5000))
	assert.Equal(t, []string{"Corte gastos", "Poupe 10%"}, got)
	assert.Contains(t, prompt, `"totalIncome":5000`)
	assert.Contains(t, prompt, "Portuguese")
}

func TestGeminiAdvisorQuotaFallsBack(t *testing.T) {
	adv := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := adv.Generate(context.Background(), summary(1))
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Equal(t, DefaultInsights(), adv.Advise(context.Background(), summary(1)))
}

func TestGeminiAdvisorBadPayloadFallsBack(t *testing.T) {
	adv := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"not json"}]}}]}`))
	})

	_, err := adv.Generate(context.Background(), summary(1))
	require.Error(t, err)
	assert.False(t, IsQuotaError(err))
	assert.Equal(t, DefaultInsights(), adv.Advise(context.Background(), summary(1)))
}

func TestParseTipsStripsFences(t *testing.T) {
	_, err := parseTips(nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{
					{Text: "thinking about it", Thought: true},
					{Text: "```json\n[\"a\", \"b\"]\n```"},
				},
			},
		}},
	}
	got, err := parseTips(resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}
