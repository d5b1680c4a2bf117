package main

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestTestNotifySendsToConfiguredTopic(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLIEnv(t)
	env.cfg.Notifications.NtfyTopic = server.URL + "/quill-test"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if requests.Load() != 1 {
		t.Fatalf("expected 1 ntfy request, got %d", requests.Load())
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications are not configured")
}

func TestTestNotifySurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	env := setupCLIEnv(t)
	env.cfg.Notifications.NtfyTopic = server.URL + "/quill-test"
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err == nil {
		t.Fatal("expected error from failing ntfy server")
	}
	requireContains(t, err.Error(), "ntfy returned 500")
}
