package fetch

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/image.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient()

	res, err := c.Fetch(srv.URL + "/image.png")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !res.OK() {
		t.Errorf("OK() = false for status %d", res.StatusCode)
	}
	if res.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", res.ContentType)
	}
	if string(res.Body) != "png-bytes" {
		t.Errorf("Body = %q, want png-bytes", res.Body)
	}

	res, err = c.Fetch(srv.URL + "/missing")
	if err != nil {
		t.Fatalf("Fetch of missing path failed: %v", err)
	}
	if res.OK() {
		t.Errorf("OK() = true for status %d, want false", res.StatusCode)
	}
}

func TestHTTPClient_FetchTransportError(t *testing.T) {
	c := NewHTTPClient()
	if _, err := c.Fetch("http://127.0.0.1:1/unreachable"); err == nil {
		t.Error("Fetch of unreachable host succeeded, want error")
	}
}

func TestResult_OK(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, true},
		{204, true},
		{299, true},
		{301, false},
		{404, false},
		{500, false},
	}
	for _, tt := range tests {
		r := &Result{StatusCode: tt.status}
		if got := r.OK(); got != tt.want {
			t.Errorf("OK() with status %d = %v, want %v", tt.status, got, tt.want)
		}
	}
}
