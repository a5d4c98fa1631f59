package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/controlrelay/config"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	if err := app.Run(context.Background(), []string{"controlrelay", "version"}); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	expected := AppName + " v" + Version
	if !strings.Contains(out.String(), expected) {
		t.Errorf("Expected %q in output, got %q", expected, out.String())
	}
}

func TestLoadConfigFlags(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("LOG_LEVEL", "info")

	tests := []struct {
		name      string
		args      []string
		wantPort  int
		wantLevel string
		wantErr   bool
	}{
		{
			name:      "environment only",
			args:      nil,
			wantPort:  4000,
			wantLevel: "info",
		},
		{
			name:      "flags override environment",
			args:      []string{"--port", "9090", "--log-level", "DEBUG"},
			wantPort:  9090,
			wantLevel: "debug",
		},
		{
			name:    "invalid log format",
			args:    []string{"--log-format", "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *config.Config
			cmd := &cli.Command{
				Name:  "test",
				Flags: serveFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var err error
					got, err = loadConfig(cmd)
					return err
				},
			}

			err := cmd.Run(context.Background(), append([]string{"test"}, tt.args...))
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Port != tt.wantPort {
				t.Errorf("Expected port %d, got %d", tt.wantPort, got.Port)
			}
			if got.LogLevel != tt.wantLevel {
				t.Errorf("Expected log level %s, got %s", tt.wantLevel, got.LogLevel)
			}
		})
	}
}

func TestSelfURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 3000, "http://localhost:3000"},
		{"0.0.0.0", 8080, "http://localhost:8080"},
		{"127.0.0.1", 9000, "http://127.0.0.1:9000"},
	}

	for _, tt := range tests {
		got := selfURL(&config.Config{Host: tt.host, Port: tt.port})
		if got != tt.want {
			t.Errorf("selfURL(%q, %d) = %s, want %s", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestBuildRelay(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"STATIC_DIR": "does-not-exist"})
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	hub, handler := buildRelay(cfg, zerolog.Nop(), "http://localhost:0")
	if hub == nil || handler == nil {
		t.Fatal("Expected hub and handler")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/roster")
	if err != nil {
		t.Fatalf("GET /api/roster failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var roster struct {
		Students     []json.RawMessage `json:"students"`
		TeacherCount int               `json:"teacher_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&roster); err != nil {
		t.Fatalf("Failed to decode roster: %v", err)
	}
	if roster.Students == nil || len(roster.Students) != 0 || roster.TeacherCount != 0 {
		t.Errorf("Expected empty roster, got %+v", roster)
	}

	mcpResp, err := http.Post(server.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	if err != nil {
		t.Fatalf("POST /mcp failed: %v", err)
	}
	mcpResp.Body.Close()
	if mcpResp.StatusCode != http.StatusOK {
		t.Errorf("Expected /mcp status 200, got %d", mcpResp.StatusCode)
	}
}

func TestRelayReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.Write([]byte(`{"status":"healthy"}`))
			return
		}
		http.NotFound(w, r)
	}))

	if !relayReachable(context.Background(), server.URL+"/") {
		t.Error("Expected relay to be reachable")
	}

	server.Close()
	if relayReachable(context.Background(), server.URL) {
		t.Error("Expected closed relay to be unreachable")
	}
}
