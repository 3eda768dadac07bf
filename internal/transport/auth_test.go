package transport

import (
	"net/http"
	"net/url"
	"testing"
)

func TestNoAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&NoAuth{}).Apply(req, "key")

	if len(req.Header) != 0 {
		t.Errorf("Expected no headers, got %d", len(req.Header))
	}
}

func TestBearerAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&BearerAuth{}).Apply(req, "patXYZ")

	if got := req.Header.Get("Authorization"); got != "Bearer patXYZ" {
		t.Errorf("Expected Authorization header 'Bearer patXYZ', got '%s'", got)
	}
}

func TestHeaderAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&HeaderAuth{Header: "x-api-key"}).Apply(req, "key")

	if got := req.Header.Get("x-api-key"); got != "key" {
		t.Errorf("Expected x-api-key header 'key', got '%s'", got)
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("Should not have Authorization header")
	}
}

func TestBasicAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&BasicAuth{User: "apikey"}).Apply(req, "secret")

	user, pass, ok := req.BasicAuth()
	if !ok || user != "apikey" || pass != "secret" {
		t.Errorf("BasicAuth() = %q, %q, %v", user, pass, ok)
	}
}

func TestQueryAuth(t *testing.T) {
	auth := &QueryAuth{Param: "key"}

	reqURL, _ := url.Parse("https://example.com/api?existing=value")
	req := &http.Request{URL: reqURL, Header: make(http.Header)}
	auth.Apply(req, "k1")

	query := req.URL.Query()
	if query.Get("key") != "k1" {
		t.Errorf("Expected query param 'key=k1', got '%s'", req.URL.RawQuery)
	}
	if query.Get("existing") != "value" {
		t.Errorf("Expected existing param to be preserved, got '%s'", query.Get("existing"))
	}

	// nil URL is a no-op
	auth.Apply(&http.Request{Header: make(http.Header)}, "k1")
}
