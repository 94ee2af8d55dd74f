package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/andersonfds/freitool/core"
)

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"android", "version", "notes", "-m", "hi"}, &stdout, &stderr); code != exitUsage {
		t.Fatalf("expected usage exit code for missing --name, got %d", code)
	}
	if code := run(context.Background(), []string{"desktop"}, &stdout, &stderr); code != exitUsage {
		t.Fatalf("expected usage exit code for unknown platform, got %d", code)
	}
}

func TestRun_MissingPlatformConfigIsMachineReadable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--machine", "android", "--package-name", "com.example.app", "version", "create", "1.0.0"}, &stdout, &stderr)
	if code != exitFailed {
		t.Fatalf("expected failure exit code, got %d (stderr=%s)", code, stderr.String())
	}
	var line machineLine
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &line); err != nil {
		t.Fatalf("decode machine output %q: %v", stdout.String(), err)
	}
	if line.OK || line.Error == nil || line.Error.Code != core.ErrorBadInput {
		t.Fatalf("unexpected machine output: %+v", line)
	}
}

func TestRun_InvalidTrackFailsBeforeAnyRequest(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"android", "--track", "nightly", "version", "create", "1.0.0"}, &stdout, &stderr)
	if code != exitFailed {
		t.Fatalf("expected failure exit code, got %d", code)
	}
	if !strings.Contains(stderr.String(), "nightly") {
		t.Fatalf("expected track in error output, got %q", stderr.String())
	}
}

func TestRun_IOSCreateVersionAndHistory(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/apps/123456/appStoreVersions":
			if r.URL.Query().Get("filter[versionString]") != "2.1.0" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = io.WriteString(w, `{"data":[]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/appStoreVersions":
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"data":{"type":"appStoreVersions","id":"ver-9","attributes":{"versionString":"2.1.0","platform":"IOS"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	keyPath := writeP8Key(t, dir)
	configPath := filepath.Join(dir, "freitool.yaml")
	config := fmt.Sprintf("app_store:\n  base_url: %s/v1\n  issuer_id: 57246542-96fe-1a63-e053-0824d011072a\nlog_level: error\n", server.URL)
	if err := os.WriteFile(configPath, []byte(config), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	journal := "file:" + filepath.Join(dir, "runs.db")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--config", configPath,
		"--journal", journal,
		"--machine",
		"ios", "--app-id", "123456", "--key-path", keyPath,
		"version", "create", "2.1.0",
	}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("expected success, got %d (stdout=%s stderr=%s)", code, stdout.String(), stderr.String())
	}
	var line struct {
		OK     bool `json:"ok"`
		Result struct {
			Platform  string `json:"platform"`
			Operation string `json:"operation"`
			Target    string `json:"target"`
			Version   string `json:"version"`
		} `json:"result"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &line); err != nil {
		t.Fatalf("decode machine output %q: %v", stdout.String(), err)
	}
	if !line.OK || line.Result.Platform != "ios" || line.Result.Target != "123456" || line.Result.Version != "2.1.0" {
		t.Fatalf("unexpected result line: %+v", line)
	}
	mu.Lock()
	if len(requests) != 2 || requests[0] != "GET /v1/apps/123456/appStoreVersions" || requests[1] != "POST /v1/appStoreVersions" {
		t.Fatalf("unexpected request sequence: %v", requests)
	}
	mu.Unlock()

	stdout.Reset()
	stderr.Reset()
	code = run(context.Background(), []string{"--journal", journal, "--machine", "history", "--platform", "ios"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("expected history success, got %d (stderr=%s)", code, stderr.String())
	}
	var row runLine
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &row); err != nil {
		t.Fatalf("decode history row %q: %v", stdout.String(), err)
	}
	if row.Operation != core.OperationCreateVersion || row.Status != string(core.RunStatusOK) || row.Step != string(core.StepCreated) {
		t.Fatalf("unexpected history row: %+v", row)
	}
}

func TestRun_VendorErrorsKeepCodeAndStatus(t *testing.T) {
	cases := []struct {
		name     string
		respond  func(w http.ResponseWriter)
		code     string
		status   int
		fragment string
	}{
		{
			name: "unauthorized",
			respond: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"errors":[{"code":"NOT_AUTHORIZED"}]}`)
			},
			code:     core.ErrorAPI,
			status:   http.StatusUnauthorized,
			fragment: "NOT_AUTHORIZED",
		},
		{
			name: "existing version",
			respond: func(w http.ResponseWriter) {
				_, _ = io.WriteString(w, `{"data":[{"type":"appStoreVersions","id":"ver-1","attributes":{"versionString":"2.1.0","platform":"IOS"}}]}`)
			},
			code:     core.ErrorVersionAlreadyExists,
			fragment: "already exists",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				tc.respond(w)
			}))
			defer server.Close()

			dir := t.TempDir()
			keyPath := writeP8Key(t, dir)
			configPath := filepath.Join(dir, "freitool.yaml")
			config := fmt.Sprintf("app_store:\n  base_url: %s/v1\n  issuer_id: 57246542-96fe-1a63-e053-0824d011072a\nlog_level: error\n", server.URL)
			if err := os.WriteFile(configPath, []byte(config), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{
				"--config", configPath,
				"--machine",
				"ios", "--app-id", "123456", "--key-path", keyPath,
				"version", "create", "2.1.0",
			}, &stdout, &stderr)
			if code != exitFailed {
				t.Fatalf("expected failure exit code, got %d (stderr=%s)", code, stderr.String())
			}
			var line machineLine
			if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &line); err != nil {
				t.Fatalf("decode machine output %q: %v", stdout.String(), err)
			}
			if line.OK || line.Error == nil {
				t.Fatalf("expected error line, got %+v", line)
			}
			if line.Error.Code != tc.code || line.Error.Status != tc.status {
				t.Fatalf("expected code %s status %d, got %+v", tc.code, tc.status, line.Error)
			}
			if got := strings.Count(line.Error.Message, tc.fragment); got != 1 {
				t.Fatalf("expected %q once in message, got %q", tc.fragment, line.Error.Message)
			}
			if strings.Contains(line.Error.Message, "HANDLER_") || strings.Contains(stderr.String(), "HANDLER_") {
				t.Fatalf("expected dispatcher envelopes to stay out of the output, got %q / %q", line.Error.Message, stderr.String())
			}
		})
	}
}

func writeP8Key(t *testing.T, dir string) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	path := filepath.Join(dir, "AuthKey_ABC123DEF4.p8")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}
