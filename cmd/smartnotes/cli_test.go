package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunInitWritesConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SMARTNOTES_HOME", tmpDir)

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	path := filepath.Join(tmpDir, "config.yaml")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Config not written: %v", err)
	}
	if !strings.Contains(string(content), "smartnotes configuration") {
		t.Error("Config template missing expected content")
	}
}

func TestRunInitKeepsExistingConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SMARTNOTES_HOME", tmpDir)

	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("version: \"1\"\n# customized\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "# customized") {
		t.Error("Existing config overwritten without --force")
	}

	initForce = true
	defer func() { initForce = false }()
	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
	content, _ = os.ReadFile(path)
	if strings.Contains(string(content), "# customized") {
		t.Error("--force did not overwrite the config")
	}
}

func TestRunStatusChecksServiceHealth(t *testing.T) {
	healthCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			healthCalls++
			w.Write([]byte(`{"status":"healthy","version":"test"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	t.Setenv("SMARTNOTES_HOME", t.TempDir())
	t.Setenv("SMARTNOTES_API_URL", srv.URL)

	statusCmd.SetContext(context.Background())
	if err := runStatus(statusCmd, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if healthCalls != 1 {
		t.Errorf("Expected one health check, got %d", healthCalls)
	}
}

func TestRunStatusSurvivesUnreachableService(t *testing.T) {
	t.Setenv("SMARTNOTES_HOME", t.TempDir())
	t.Setenv("SMARTNOTES_API_URL", "http://127.0.0.1:1")

	statusCmd.SetContext(context.Background())
	if err := runStatus(statusCmd, nil); err != nil {
		t.Fatalf("status must report, not fail, when the service is down: %v", err)
	}
}
