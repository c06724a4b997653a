package main

import (
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerKeepsEventStreamsOpen(t *testing.T) {
	server := newHTTPServer("8080", http.NewServeMux())

	if server.WriteTimeout != 0 {
		t.Fatalf("write timeout would cut long-lived event streams, got %v", server.WriteTimeout)
	}
	if server.ReadTimeout != 30*time.Second {
		t.Fatalf("unexpected read timeout: %v", server.ReadTimeout)
	}
	if server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", server.Addr)
	}
}
