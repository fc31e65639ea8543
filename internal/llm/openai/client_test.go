package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tendertrack/tender-agent/internal/entity"
	"github.com/tendertrack/tender-agent/internal/llm"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, logger)
}

func refineRequest() llm.RefineRequest {
	return llm.RefineRequest{
		RawText:   "Delivery: 30 days from PO, Warranty: 2 years",
		SourceRef: "tender.pdf",
		Fields:    entity.ReducedFields{Delivery: "30 days from PO"},
	}
}

func TestRefineOK(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, chatResponse(
			`{"technical_specs":"4 sqmm FR single core","project_name":"Phase II","confidence":0.8}`))
	})

	out, raw, err := c.Refine(context.Background(), refineRequest())
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if out.TechnicalSpecs != "4 sqmm FR single core" || out.ProjectName != "Phase II" {
		t.Errorf("fields = %+v", out)
	}
	if len(raw) == 0 {
		t.Error("raw content not returned")
	}
}

func TestRefineLenientSanitize(t *testing.T) {
	// invalid per schema (null field, unknown key) but recoverable
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatResponse(
			`{"delivery":null,"ministry":"Ministry of Power","reasoning":"chain of thought"}`))
	})

	out, _, err := c.Refine(context.Background(), refineRequest())
	if err != nil {
		t.Fatalf("Refine() error = %v, lenient sanitize should recover", err)
	}
	if out.Ministry != "Ministry of Power" {
		t.Errorf("Ministry = %q", out.Ministry)
	}
	if out.Delivery != "" {
		t.Errorf("null delivery survived sanitize: %q", out.Delivery)
	}
}

func TestRefineHTTPError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	if _, _, err := c.Refine(context.Background(), refineRequest()); err == nil {
		t.Error("Refine() returned nil error on 429")
	}
}

func TestRefineNoChoices(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	})

	if _, _, err := c.Refine(context.Background(), refineRequest()); err == nil {
		t.Error("Refine() returned nil error on empty choices")
	}
}

func TestRefineGarbageContent(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatResponse("I could not find any fields, sorry."))
	})

	if _, _, err := c.Refine(context.Background(), refineRequest()); err == nil {
		t.Error("Refine() returned nil error for non-JSON content")
	}
}
