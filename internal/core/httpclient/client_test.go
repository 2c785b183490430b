package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestNewOutbound_Timeouts(t *testing.T) {
	c := NewOutbound(3 * time.Second)
	if c.Timeout != 3*time.Second {
		t.Fatalf("timeout=%s want 3s", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport=%T", c.Transport)
	}
	if tr.ResponseHeaderTimeout != 3*time.Second {
		t.Fatalf("header timeout=%s", tr.ResponseHeaderTimeout)
	}

	if NewOutbound(0).Timeout != 30*time.Second {
		t.Fatalf("zero timeout must fall back to 30s")
	}
}
