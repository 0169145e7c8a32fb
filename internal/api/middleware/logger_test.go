package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/athlete-sentinel/sentinel/internal/metrics"
)

// newTestChain stacks the full middleware chain around a handler, the way
// the router does.
func newTestChain(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(Logger(Metrics(metrics.New())(Telemetry(h))))
	t.Cleanup(srv.Close)
	return srv
}

func TestResponseWriterSupportsHijack(t *testing.T) {
	result := make(chan error, 1)
	srv := newTestChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			result <- errors.New("writer does not implement http.Hijacker")
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			result <- err
			return
		}
		defer conn.Close()
		buf.WriteString("HTTP/1.1 204 No Content\r\n\r\n")
		buf.Flush()
		result <- nil
	}))

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()

	if err := <-result; err != nil {
		t.Fatalf("Hijack() through middleware chain error = %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("hijacked response status = %d, want 204", resp.StatusCode)
	}
}

func TestResponseWriterSupportsFlush(t *testing.T) {
	flushed := make(chan bool, 1)
	srv := newTestChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		flushed <- ok
		if ok {
			w.Write([]byte("chunk"))
			fl.Flush()
		}
	}))

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()

	if !<-flushed {
		t.Fatalf("writer does not implement http.Flusher")
	}
}
