package homeassistant

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/ekvall/camrelay/testutil"
)

func newTestClient(m *testutil.MockHomeAssistant) *Client {
	return &Client{BaseURL: m.URL, Token: "test-token", Entity: "camera.front_door"}
}

func TestSnapshot(t *testing.T) {
	m := testutil.NewMockHomeAssistant(t)
	img := bytes.Repeat([]byte{0xff, 0xd8, 0xff}, 16)
	m.MockSnapshot("camera.front_door", img)

	c := newTestClient(m)
	got, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !bytes.Equal(got, img) {
		t.Errorf("snapshot bytes mismatch: got %d bytes, want %d", len(got), len(img))
	}
	if auth := m.LastAuth(); auth != "Bearer test-token" {
		t.Errorf("Authorization header = %q, want bearer token", auth)
	}
}

func TestSnapshotNon200(t *testing.T) {
	m := testutil.NewMockHomeAssistant(t)
	m.MockStatusCode("/api/camera_proxy/camera.front_door", http.StatusBadGateway)

	c := newTestClient(m)
	_, err := c.Snapshot(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Code != http.StatusBadGateway {
		t.Errorf("Code = %d, want 502", se.Code)
	}
}

func TestResolveStream(t *testing.T) {
	m := testutil.NewMockHomeAssistant(t)
	m.MockStream("camera.front_door")

	c := newTestClient(m)
	loc, err := c.ResolveStream(context.Background())
	if err != nil {
		t.Fatalf("ResolveStream: %v", err)
	}
	if !strings.HasSuffix(loc.URL, "/api/camera_proxy_stream/camera.front_door") {
		t.Errorf("locator URL = %q", loc.URL)
	}
	if loc.AuthHeader != "Authorization: Bearer test-token" {
		t.Errorf("AuthHeader = %q", loc.AuthHeader)
	}
}

func TestResolveStreamForbidden(t *testing.T) {
	m := testutil.NewMockHomeAssistant(t)
	m.MockStatusCode("/api/camera_proxy_stream/camera.front_door", http.StatusForbidden)

	c := newTestClient(m)
	_, err := c.ResolveStream(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("expected 403 *StatusError, got %v", err)
	}
}

func TestResolveStreamNetworkError(t *testing.T) {
	c := &Client{BaseURL: "http://127.0.0.1:1", Token: "t", Entity: "camera.x"}
	_, err := c.ResolveStream(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("network failure should not be a *StatusError: %v", err)
	}
}

func TestStatus(t *testing.T) {
	m := testutil.NewMockHomeAssistant(t)
	m.MockAPIRoot(http.StatusOK)
	c := newTestClient(m)
	if err := c.Status(context.Background()); err != nil {
		t.Errorf("Status: %v", err)
	}

	m.MockAPIRoot(http.StatusUnauthorized)
	err := c.Status(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 *StatusError, got %v", err)
	}
}
