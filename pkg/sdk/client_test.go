package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// --- Helpers ---

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

// --- Tests ---

func TestNew_NoBaseURL(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Fatal("expected error when no base URL provided")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New("http://localhost:8080/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
}

func TestAsk(t *testing.T) {
	var gotPath, gotAuth, gotRegion, gotPHI, gotPII string
	var gotBody askRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRegion = r.Header.Get("X-Caller-Region")
		gotPHI = r.Header.Get("X-Phi-Clearance")
		gotPII = r.Header.Get("X-Pii-Clearance")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeJSON(t, w, http.StatusOK, AskResult{
			Answer: "Amoxicillin is first line [[0011223344556677]].",
			Confidence: Confidence{
				Composite:      0.92,
				GroundingRatio: 1,
				Grounded:       []string{"0011223344556677"},
			},
			Loaded: Loaded{BudgetTokens: 1000, UsedTokens: 700, Remaining: 300},
		})
	}, WithAPIKey("secret"))

	res, err := c.Ask(context.Background(), "pneumonia treatment", Caller{
		Region:       "us-east",
		PHIClearance: true,
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if gotPath != "/v1/ask" {
		t.Errorf("path = %q, want /v1/ask", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q, want Bearer secret", gotAuth)
	}
	if gotRegion != "us-east" {
		t.Errorf("region header = %q, want us-east", gotRegion)
	}
	if gotPHI != "true" {
		t.Errorf("phi header = %q, want true", gotPHI)
	}
	if gotPII != "" {
		t.Errorf("pii header = %q, want unset", gotPII)
	}
	if gotBody.Query != "pneumonia treatment" {
		t.Errorf("query = %q", gotBody.Query)
	}
	if res.Confidence.Composite != 0.92 {
		t.Errorf("composite = %v, want 0.92", res.Confidence.Composite)
	}
	if res.Loaded.UsedTokens != 700 {
		t.Errorf("used tokens = %d, want 700", res.Loaded.UsedTokens)
	}
}

func TestAsk_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]string{
			"code":    CodeBudgetExceeded,
			"message": "token budget exceeded: section needs 5000 tokens, budget is 1000",
		})
	})

	_, err := c.Ask(context.Background(), "pneumonia treatment", Caller{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != CodeBudgetExceeded {
		t.Errorf("code = %q, want %q", apiErr.Code, CodeBudgetExceeded)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", apiErr.StatusCode)
	}
}

func TestAsk_NonEnvelopeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	})

	_, err := c.Ask(context.Background(), "q", Caller{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", apiErr.StatusCode)
	}
	if apiErr.Code != CodeInternal {
		t.Errorf("code = %q, want fallback %q", apiErr.Code, CodeInternal)
	}
}

func TestRoute(t *testing.T) {
	var gotBody routeRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/route" {
			t.Errorf("path = %q, want /v1/route", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeJSON(t, w, http.StatusOK, routeResponse{Candidates: []Candidate{
			{SectionID: "0011223344556677", FinalScore: 2.5, TokenCount: 400},
		}})
	})

	cands, err := c.Route(context.Background(), "pneumonia treatment", 3, Caller{Region: "us-east"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if gotBody.TopK != 3 {
		t.Errorf("top_k = %d, want 3", gotBody.TopK)
	}
	if len(cands) != 1 || cands[0].SectionID != "0011223344556677" {
		t.Errorf("candidates = %+v", cands)
	}
}

func TestPublishCorpus(t *testing.T) {
	var gotBody corpusRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/corpus" {
			t.Errorf("path = %q, want /v1/corpus", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeJSON(t, w, http.StatusOK, Snapshot{Version: "v-abc", Sections: 2, Terms: 11})
	})

	snap, err := c.PublishCorpus(context.Background(), []SectionRecord{
		{FileID: "guidelines.md", Text: "Pneumonia treatment.", TokenCount: 400},
		{FileID: "guidelines.md", Text: "Pediatric dosing.", TokenCount: 300},
	})
	if err != nil {
		t.Fatalf("PublishCorpus: %v", err)
	}
	if len(gotBody.Records) != 2 {
		t.Fatalf("records sent = %d, want 2", len(gotBody.Records))
	}
	if gotBody.Records[0].FileID != "guidelines.md" {
		t.Errorf("record file_id = %q", gotBody.Records[0].FileID)
	}
	if snap.Version != "v-abc" || snap.Sections != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSnapshot(t *testing.T) {
	built := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/snapshot" {
			t.Errorf("request = %s %s, want GET /v1/snapshot", r.Method, r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, Snapshot{Version: "v-abc", Sections: 2, Terms: 11, BuiltAt: built})
	})

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.BuiltAt.Equal(built) {
		t.Errorf("built_at = %v, want %v", snap.BuiltAt, built)
	}
}

func TestHealth_Degraded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusServiceUnavailable, Health{
			Status: "degraded",
			Checks: map[string]string{"index": "failed: index unavailable"},
		})
	})

	report, err := c.Health(context.Background())
	if err == nil {
		t.Fatal("expected error for degraded health")
	}
	if report.Status != "degraded" {
		t.Errorf("status = %q, want degraded (report returned alongside error)", report.Status)
	}
}

func TestHealth_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, Health{Status: "ok", Checks: map[string]string{"index": "ok"}})
	})

	report, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if report.Status != "ok" {
		t.Errorf("status = %q, want ok", report.Status)
	}
}

func TestNoAPIKey_NoAuthHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, Snapshot{})
	})

	if _, err := c.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("authorization = %q, want unset", gotAuth)
	}
}
