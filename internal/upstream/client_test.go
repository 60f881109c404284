package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"imagerelay/internal/domain"
)

type stubTransport struct {
	status int
	body   string
	err    error
	last   *http.Request
	sent   []byte
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.last = req
	if req.Body != nil {
		s.sent, _ = io.ReadAll(req.Body)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestCleanCredential(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Bearer abc123  ", want: "abc123"},
		{in: "bearer   xyz", want: "xyz"},
		{in: `"quoted-key"`, want: "quoted-key"},
		{in: `'single'`, want: "single"},
		{in: "BEARER k", want: "k"},
		{in: "plain", want: "plain"},
		{in: "Bearerless", want: "Bearerless"},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		if got := CleanCredential(tc.in); got != tc.want {
			t.Fatalf("CleanCredential(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := AuthorizationHeader("  Bearer abc123  "); got != "Bearer abc123" {
		t.Fatalf("AuthorizationHeader = %q, want %q", got, "Bearer abc123")
	}
}

func TestSubmitSendsJSONWithCleanedCredential(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: `{"data":{"status":"created","urls":{"get":" https://api.example.com/r/1 "}}}`}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})

	resp, err := client.Submit(context.Background(), ` "https://api.example.com/edit" `, "  Bearer abc123  ", map[string]any{"prompt": "p"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if transport.last.Method != http.MethodPost {
		t.Fatalf("method = %q, want POST", transport.last.Method)
	}
	if got := transport.last.URL.String(); got != "https://api.example.com/edit" {
		t.Fatalf("url = %q, want cleaned endpoint", got)
	}
	if got := transport.last.Header.Get("Authorization"); got != "Bearer abc123" {
		t.Fatalf("authorization = %q, want %q", got, "Bearer abc123")
	}
	if got := transport.last.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("content-type = %q, want application/json", got)
	}
	var sent map[string]string
	if err := json.Unmarshal(transport.sent, &sent); err != nil || sent["prompt"] != "p" {
		t.Fatalf("sent body = %s (%v)", transport.sent, err)
	}
	if resp.Data == nil || resp.Data.URLs.Get != "https://api.example.com/r/1" {
		t.Fatalf("urls.get not decoded: %+v", resp.Data)
	}
}

func TestRequestClassification(t *testing.T) {
	long := strings.Repeat("é", 2000)
	tests := []struct {
		name      string
		endpoint  string
		transport *stubTransport
		kind      error
		bodyChars int
		status    int
	}{
		{name: "empty endpoint", endpoint: "  ", transport: &stubTransport{}, kind: domain.ErrConfig},
		{name: "bad scheme", endpoint: "ftp://x", transport: &stubTransport{}, kind: domain.ErrConfig},
		{name: "transport failure", endpoint: "https://x", transport: &stubTransport{err: errors.New("dial tcp: refused")}, kind: domain.ErrNetwork},
		{name: "server error", endpoint: "https://x", transport: &stubTransport{status: 503, body: long}, kind: domain.ErrUpstreamServer, bodyChars: 1500, status: 503},
		{name: "client error", endpoint: "https://x", transport: &stubTransport{status: 401, body: `{"error":"bad key"}`}, kind: domain.ErrUpstreamClient, bodyChars: 19, status: 401},
		{name: "malformed", endpoint: "https://x", transport: &stubTransport{status: 200, body: "<html>" + long}, kind: domain.ErrMalformedResponse, bodyChars: 500, status: 200},
		{name: "malformed accepted", endpoint: "https://x", transport: &stubTransport{status: 202, body: "<html>not json</html>"}, kind: domain.ErrMalformedResponse, bodyChars: 21, status: 202},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := NewClient(Options{HTTPClient: &http.Client{Transport: tc.transport}})
			_, err := client.Submit(context.Background(), tc.endpoint, "k", map[string]string{})
			if !errors.Is(err, tc.kind) {
				t.Fatalf("err = %v, want kind %v", err, tc.kind)
			}
			if domain.KindOf(err) != tc.kind {
				t.Fatalf("KindOf = %v, want %v", domain.KindOf(err), tc.kind)
			}
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *HTTPError, got %T", err)
			}
			if tc.bodyChars > 0 {
				if got := len([]rune(httpErr.Body)); got != tc.bodyChars {
					t.Fatalf("body chars = %d, want %d", got, tc.bodyChars)
				}
			}
			if httpErr.StatusCode != tc.status {
				t.Fatalf("StatusCode = %d, want %d", httpErr.StatusCode, tc.status)
			}
			if !strings.Contains(err.Error(), tc.kind.Error()) {
				t.Fatalf("message %q does not name kind %q", err.Error(), tc.kind)
			}
			if tc.kind == domain.ErrConfig && tc.transport.last != nil {
				t.Fatalf("config error should not reach the transport")
			}
		})
	}
}

func TestFetchClassifiesStatus(t *testing.T) {
	transport := &stubTransport{status: 404, body: "not found"}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})
	_, err := client.Fetch(context.Background(), "https://api.example.com/r/1", "k")
	if !errors.Is(err, domain.ErrUpstreamClient) {
		t.Fatalf("err = %v, want upstream client error", err)
	}
	if transport.last.Method != http.MethodGet {
		t.Fatalf("method = %q, want GET", transport.last.Method)
	}
	if transport.last.Body != nil && transport.last.Body != http.NoBody {
		t.Fatalf("fetch should not send a body")
	}
}

func TestFetchTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(Options{FetchTimeout: 50 * time.Millisecond})
	_, err := client.Fetch(context.Background(), srv.URL, "k")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("err = %v, want network error", err)
	}
}

func TestDecodeResponseShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		hasData   bool
		hasTop    bool
		status    string
		outputs   int
		resultURL string
		errDetail string
	}{
		{name: "nested", body: `{"data":{"status":"Completed","outputs":["u"]}}`, hasData: true, hasTop: true, status: "completed", outputs: 1},
		{name: "top level only", body: `{"status":"processing"}`, hasTop: true, status: "processing"},
		{name: "data not object", body: `{"data":[1,2]}`, hasTop: true},
		{name: "array body", body: `[1,2]`},
		{name: "outputs not array", body: `{"data":{"outputs":"u"}}`, hasData: true, hasTop: true},
		{name: "status not string", body: `{"data":{"status":3}}`, hasData: true, hasTop: true},
		{name: "error field", body: `{"data":{"status":"failed","error":"quota"}}`, hasData: true, hasTop: true, status: "failed", errDetail: "quota"},
		{name: "urls", body: `{"data":{"urls":{"get":"https://r"}}}`, hasData: true, hasTop: true, resultURL: "https://r"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := DecodeResponse([]byte(tc.body))
			if (resp.Data != nil) != tc.hasData {
				t.Fatalf("data present = %v, want %v", resp.Data != nil, tc.hasData)
			}
			if (resp.Top != nil) != tc.hasTop {
				t.Fatalf("top present = %v, want %v", resp.Top != nil, tc.hasTop)
			}
			data := resp.JobData()
			if got := data.NormalizedStatus(); got != tc.status {
				t.Fatalf("status = %q, want %q", got, tc.status)
			}
			if got := len(data.Outputs); got != tc.outputs {
				t.Fatalf("outputs = %d, want %d", got, tc.outputs)
			}
			if got := data.URLs.Get; got != tc.resultURL {
				t.Fatalf("urls.get = %q, want %q", got, tc.resultURL)
			}
			if tc.errDetail != "" && data.ErrorDetail() != tc.errDetail {
				t.Fatalf("error detail = %q, want %q", data.ErrorDetail(), tc.errDetail)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []string{"COMPLETED", "succeeded"} {
		if !IsTerminalSuccess(NormalizeStatus(s)) {
			t.Fatalf("%q should be terminal success", s)
		}
	}
	for _, s := range []string{"Failed", "canceled", "CANCELLED", "error"} {
		if !IsTerminalFailure(NormalizeStatus(s)) {
			t.Fatalf("%q should be terminal failure", s)
		}
	}
	for _, s := range []string{"", "processing", "created"} {
		n := NormalizeStatus(s)
		if IsTerminalSuccess(n) || IsTerminalFailure(n) {
			t.Fatalf("%q should not be terminal", s)
		}
	}
}

func TestTruncateCountsCharacters(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("Truncate = %q, want %q", got, "hé")
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("Truncate = %q, want abc", got)
	}
}
