package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zcline91/spam-filter/internal/storage"
)

const testToken = "test-token-12345"

func setupHandler(t *testing.T, token string) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewHandler(Deps{Runs: store, Token: token}), store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return e
}

func TestHealthIsPublic(t *testing.T) {
	h, _ := setupHandler(t, testToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	h, _ := setupHandler(t, testToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/runs", "", "wrong"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if e := decodeError(t, rr); e.Error.Type != "authentication_error" {
		t.Errorf("type = %q", e.Error.Type)
	}
}

func TestExtract(t *testing.T) {
	h, _ := setupHandler(t, "")
	raw := "Subject:   Hello\tthere\nContent-Type: text/html\n\n<p>Buy\n\nnow</p>\n"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/extract", raw, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var resp ExtractResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Subject == nil || *resp.Subject != "Hello there" {
		t.Errorf("subject = %v", resp.Subject)
	}
	if resp.Body == nil || strings.TrimSpace(*resp.Body) != "Buy now" {
		t.Errorf("body = %v", resp.Body)
	}
}

func TestExtractBlankFieldsAreNull(t *testing.T) {
	h, _ := setupHandler(t, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/extract", "Content-Type: text/plain\n\n   \n", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"subject":null,"body":null}` {
		t.Errorf("body = %s", got)
	}
}

func TestExtractErrors(t *testing.T) {
	h, _ := setupHandler(t, "")
	tests := []struct {
		name     string
		raw      string
		code     int
		wantType string
	}{
		{"empty", "", http.StatusBadRequest, "invalid_request_error"},
		{"image", "Content-Type: image/png\n\nPNG", http.StatusUnprocessableEntity, "content_type_error"},
		{"charset", "Content-Type: text/plain; charset=koi8-r\n\nx", http.StatusUnprocessableEntity, "charset_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, authReq(http.MethodPost, "/extract", tt.raw, ""))
			if rr.Code != tt.code {
				t.Fatalf("status = %d, want %d", rr.Code, tt.code)
			}
			if e := decodeError(t, rr); e.Error.Type != tt.wantType {
				t.Errorf("type = %q, want %q", e.Error.Type, tt.wantType)
			}
		})
	}
}

func TestRuns(t *testing.T) {
	h, store := setupHandler(t, testToken)
	ctx := context.Background()
	run, err := store.StartRun(ctx, storage.KindExtract, "ling", "/data/ling", "/out/lingspam_public.csv")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun(ctx, run.ID, storage.Counts{Total: 3, Extracted: 2, Encoding: 1},
		[]storage.CharsetCount{{Charset: "big5", Count: 1}}, nil); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/runs?limit=5", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var list []runJSON
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != run.ID || list[0].Extracted != 2 {
		t.Fatalf("list = %+v", list)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/runs/"+run.ID, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var got runJSON
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != storage.StatusCompleted || got.FinishedAt == nil {
		t.Errorf("run = %+v", got)
	}
	if len(got.RejectedCharsets) != 1 || got.RejectedCharsets[0].Charset != "big5" {
		t.Errorf("rejected charsets = %+v", got.RejectedCharsets)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/runs/missing", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d", rr.Code)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=500", 100},
		{"limit=-1", 20},
		{"limit=abc", 20},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/runs?"+tt.query, nil)
		if got := parseIntParam(r, "limit", 20, 100); got != tt.want {
			t.Errorf("%q: got %d, want %d", tt.query, got, tt.want)
		}
	}
}
