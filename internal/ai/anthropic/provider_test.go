package anthropic

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DukeRupert/kaia/internal/ai"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		ProviderConfig: ai.ProviderConfig{
			MaxRetries:     3,
			RetryBaseDelay: time.Millisecond,
			RequestTimeout: 5 * time.Second,
		},
	}, testLogger())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return p
}

func params() ai.AnalyzeChartParams {
	return ai.AnalyzeChartParams{
		ImageData:   []byte{0x89, 'P', 'N', 'G'},
		ContentType: "image/png",
		Timeframe:   "H4",
		Variant:     "SMC",
		Language:    "en",
	}
}

const okBody = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "content": [{"type": "text", "text": "{\"market_bias\":\"Bearish\",\"market_phase\":\"Distribution\",\"confidence\":\"High\",\"analysis_text\":\"Lower highs.\",\"risk_note\":\"News\",\"opportunity_context\":\"Retest\"}"}],
  "model": "claude-3-5-sonnet-20241022",
  "usage": {"input_tokens": 1000000, "output_tokens": 100000}
}`

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}, testLogger()); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestAnalyzeChart_Success(t *testing.T) {
	var gotReq apiRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != APIVersion {
			t.Errorf("missing version header")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(okBody))
	})

	res, err := p.AnalyzeChart(t.Context(), params())
	if err != nil {
		t.Fatalf("AnalyzeChart error: %v", err)
	}

	if res.Analysis.MarketBias != "Bearish" || res.Analysis.AnalysisText != "Lower highs." {
		t.Errorf("unexpected analysis: %+v", res.Analysis)
	}
	if res.Usage.CostCents != 300+150 {
		t.Errorf("CostCents = %d, want 450", res.Usage.CostCents)
	}
	if !strings.Contains(gotReq.System, "Lang: en") {
		t.Errorf("system prompt = %q", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 2 {
		t.Fatalf("unexpected message layout: %+v", gotReq.Messages)
	}
	if gotReq.Messages[0].Content[0].Source.MediaType != "image/png" {
		t.Errorf("image media type = %q", gotReq.Messages[0].Content[0].Source.MediaType)
	}
	if !strings.Contains(gotReq.Messages[0].Content[1].Text, "Analyze SMC on H4 timeframe") {
		t.Errorf("task prompt = %q", gotReq.Messages[0].Content[1].Text)
	}
}

func TestAnalyzeChart_RetriesTransientErrors(t *testing.T) {
	var calls int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	})

	if _, err := p.AnalyzeChart(t.Context(), params()); err != nil {
		t.Fatalf("AnalyzeChart error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestAnalyzeChart_DoesNotRetryAuthErrors(t *testing.T) {
	var calls int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := p.AnalyzeChart(t.Context(), params())
	if !errors.Is(err, ai.EAIUnauthorized) {
		t.Fatalf("expected EAIUnauthorized, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestAnalyzeChart_MalformedAnswer(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"I cannot read this chart."}]}`))
	})

	_, err := p.AnalyzeChart(t.Context(), params())
	if !errors.Is(err, ai.EAIMalformed) {
		t.Fatalf("expected EAIMalformed, got %v", err)
	}
}

func TestAnalyzeChart_RejectsUnsupportedImage(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	in := params()
	in.ContentType = "application/pdf"
	if _, err := p.AnalyzeChart(t.Context(), in); !errors.Is(err, ai.EAIInvalidImage) {
		t.Fatalf("expected EAIInvalidImage, got %v", err)
	}
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ai.EAIUnauthorized},
		{http.StatusTooManyRequests, ai.EAIRateLimit},
		{http.StatusRequestTimeout, ai.EAITimeout},
		{http.StatusBadGateway, ai.EAIUnavailable},
		{529, ai.EAIUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if err := mapHTTPError(tt.status, nil); !errors.Is(err, tt.want) {
				t.Errorf("mapHTTPError(%d) = %v, want %v", tt.status, err, tt.want)
			}
		})
	}
}
