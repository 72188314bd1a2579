package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    Config
	}{
		{
			name: "yaml",
			file: "canvaz.yaml",
			content: `version: v1.2.0
log:
  level: debug
  format: json
color: false
max_call_depth: 64
host:
  frames: 5
`,
			want: Config{
				Version:      "v1.2.0",
				Log:          Log{Level: "debug", Format: "json"},
				Color:        false,
				MaxCallDepth: 64,
				Host:         Host{Frames: 5},
			},
		},
		{
			name:    "partial yaml keeps defaults",
			file:    "canvaz.yml",
			content: "log:\n  level: info\n",
			want: Config{
				Version: Version,
				Log:     Log{Level: "info", Format: "text"},
				Color:   true,
				Host:    Host{Frames: 60},
			},
		},
		{
			name:    "empty yaml",
			file:    "canvaz.yaml",
			content: "",
			want:    *Default(),
		},
		{
			name: "toml",
			file: "canvaz.toml",
			content: `version = "v1.0.0"
color = false

[log]
level = "warn"

[host]
frames = 10
`,
			want: Config{
				Version: "v1.0.0",
				Log:     Log{Level: "warn", Format: "text"},
				Color:   false,
				Host:    Host{Frames: 10},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.want.Path = path
			if diff := cmp.Diff(&tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unknown yaml field", "canvaz.yaml", "colour: true\n", "field colour not found"},
		{"unknown toml field", "canvaz.toml", "colour = true\n", `unknown field "colour"`},
		{"invalid version", "canvaz.yaml", "version: one\n", `invalid version "one"`},
		{"future major version", "canvaz.yaml", "version: v2.0.0\n", "unsupported version v2.0.0"},
		{"bad level", "canvaz.yaml", "log:\n  level: loud\n", `unknown log level "loud"`},
		{"bad format", "canvaz.yaml", "log:\n  format: xml\n", `unknown log format "xml"`},
		{"negative frames", "canvaz.yaml", "host:\n  frames: -1\n", "host.frames must not be negative"},
		{"negative depth", "canvaz.yaml", "max_call_depth: -1\n", "max_call_depth must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load succeeded, want an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "canvaz.yaml")); err == nil {
		t.Error("Load of a missing file succeeded, want an error")
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	got, err := Find(dir)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("Find() in an empty directory mismatch (-want +got):\n%s", diff)
	}

	writeFile(t, dir, "canvaz.toml", "color = false\n")
	got, err = Find(dir)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got.Color {
		t.Error("Find() did not pick up canvaz.toml")
	}

	writeFile(t, dir, "canvaz.yaml", "max_call_depth: 7\n")
	got, err = Find(dir)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got.MaxCallDepth != 7 || !got.Color {
		t.Errorf("Find() = %+v, want canvaz.yaml to win over canvaz.toml", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = Log{Level: "info", Format: "json"}
	logger := cfg.Logger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "name", "x")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"name":"x"`) {
		t.Errorf("unexpected json output: %s", out)
	}

	buf.Reset()
	cfg.Log = Log{Level: "debug", Format: "text"}
	cfg.Logger(&buf).Debug("visible")
	if !strings.Contains(buf.String(), "level=DEBUG msg=visible") {
		t.Errorf("unexpected text output: %s", buf.String())
	}
}
