package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/conduit-lang/excellent/pkg/lexer"
)

// inDir runs the test from dir so Load finds excellent.yml there
func inDir(t *testing.T, dir string) {
	t.Helper()

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "excellent.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	inDir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Prefix != "@" {
		t.Errorf("expected default prefix '@', got %q", cfg.Prefix)
	}

	if strings.Join(cfg.TopLevels, ",") != strings.Join(lexer.DefaultTopLevels, ",") {
		t.Errorf("expected default top levels, got %v", cfg.TopLevels)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host 'localhost', got %s", cfg.Server.Host)
	}

	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected default cache ttl 5m, got %v", cfg.Cache.TTL)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Log.Level)
	}

	if cfg.File != "" {
		t.Errorf("expected no config file, got %s", cfg.File)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)

	writeConfig(t, dir, `
prefix: "$"
top_levels: [contact, flow]
vocabulary:
  fields:
    contact: [name, age]
    contact.fields: [district]
  functions: [SUM, upper]
cache:
  backend: memory
  ttl: 30s
server:
  host: 0.0.0.0
  port: 9000
  jwt_secret: s3cret
log:
  level: debug
  development: true
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Prefix != "$" {
		t.Errorf("expected prefix '$', got %q", cfg.Prefix)
	}

	if got := strings.Join(cfg.TopLevels, ","); got != "contact,flow" {
		t.Errorf("expected top levels contact,flow, got %s", got)
	}

	if got := strings.Join(cfg.Vocabulary.Fields["contact.fields"], ","); got != "district" {
		t.Errorf("expected contact.fields to hold district, got %q (fields %v)", got, cfg.Vocabulary.Fields)
	}

	if cfg.Cache.Backend != "memory" || cfg.Cache.TTL != 30*time.Second {
		t.Errorf("unexpected cache config %+v", cfg.Cache)
	}

	if cfg.Address() != "0.0.0.0:9000" {
		t.Errorf("expected address 0.0.0.0:9000, got %s", cfg.Address())
	}

	if cfg.Server.JWTSecret != "s3cret" {
		t.Errorf("expected jwt secret, got %q", cfg.Server.JWTSecret)
	}

	if !cfg.Log.Development || cfg.Log.Level != "debug" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}

	if filepath.Base(cfg.File) != "excellent.yml" {
		t.Errorf("expected excellent.yml to be used, got %s", cfg.File)
	}

	l, err := cfg.Lexer()
	if err != nil {
		t.Fatalf("Lexer() failed: %v", err)
	}
	if l.Prefix() != '$' {
		t.Errorf("expected lexer prefix '$', got %q", l.Prefix())
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	inDir(t, t.TempDir())

	other := t.TempDir()
	path := filepath.Join(other, "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Server.Port)
	}

	if _, err := Load(filepath.Join(other, "missing.yml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	inDir(t, t.TempDir())

	t.Setenv("EXCELLENT_SERVER_PORT", "9191")
	t.Setenv("EXCELLENT_LOG_LEVEL", "warn")
	t.Setenv("EXCELLENT_PREFIX", "#")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("expected port 9191 from env, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level warn from env, got %s", cfg.Log.Level)
	}
	if cfg.Prefix != "#" {
		t.Errorf("expected prefix '#' from env, got %q", cfg.Prefix)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"long prefix", `prefix: "@@"`, "single character"},
		{"word prefix", `prefix: "a"`, "invalid prefix"},
		{"port", "server:\n  port: 70000", "server.port"},
		{"driver", "vocabulary:\n  driver: oracle\n  dsn: x", "unknown vocabulary driver"},
		{"dsn", "vocabulary:\n  driver: sqlite3", "vocabulary.dsn"},
		{"backend", "cache:\n  backend: memcached", "cache.backend"},
		{"log level", "log:\n  level: loud", "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			inDir(t, dir)
			writeConfig(t, dir, tt.content)

			_, err := Load("")
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Prefix != "@" || cfg.Server.Port != 8080 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := validateConfig(cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func names(entries []vocabulary.Entry) string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return strings.Join(out, ",")
}

func TestVocabulary_Static(t *testing.T) {
	cfg := Default()
	cfg.TopLevels = []string{"contact", "flow"}
	cfg.Vocabulary.Fields = map[string][]string{"contact.fields": {"ward", "district"}}
	cfg.Vocabulary.Functions = []string{"sum"}

	store, closeFn, err := cfg.Vocabulary(context.Background(), nil)
	if err != nil {
		t.Fatalf("Vocabulary() failed: %v", err)
	}
	defer closeFn()

	ctx := context.Background()

	top, err := store.Children(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := names(top); got != "contact,flow" {
		t.Errorf("expected top levels contact,flow, got %s", got)
	}

	fields, err := store.Children(ctx, "contact.fields")
	if err != nil {
		t.Fatal(err)
	}
	if got := names(fields); got != "district,ward" {
		t.Errorf("expected district,ward, got %s", got)
	}

	functions, err := store.Functions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := names(functions); got != "SUM" {
		t.Errorf("expected SUM, got %s", got)
	}
}

func TestVocabulary_Database(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	cfg.TopLevels = []string{"contact"}
	cfg.Vocabulary.Fields = map[string][]string{"contact": {"name"}}
	cfg.Vocabulary.Driver = vocabulary.DriverSQLite
	cfg.Vocabulary.DSN = filepath.Join(t.TempDir(), "vocab.db")
	cfg.Cache.Backend = "memory"

	db, err := cfg.OpenDatabase(ctx, nil)
	if err != nil {
		t.Fatalf("OpenDatabase() failed: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if err := db.AddPath(ctx, "contact.district", "District"); err != nil {
		t.Fatal(err)
	}
	if err := db.AddPath(ctx, "contact.name", "duplicate of a static name"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	store, closeFn, err := cfg.Vocabulary(ctx, nil)
	if err != nil {
		t.Fatalf("Vocabulary() failed: %v", err)
	}
	defer closeFn()

	fields, err := store.Children(ctx, "contact")
	if err != nil {
		t.Fatal(err)
	}
	if got := names(fields); got != "district,name" {
		t.Errorf("expected district,name, got %s", got)
	}
	for _, f := range fields {
		if f.Name == "name" && f.Detail != "" {
			t.Errorf("expected the static entry to win, got detail %q", f.Detail)
		}
	}
}

func TestOpenDatabase_NotConfigured(t *testing.T) {
	if _, err := Default().OpenDatabase(context.Background(), nil); err == nil {
		t.Error("expected error without a driver")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excellent.yml")

	cfg := Default()
	cfg.Prefix = "$"
	cfg.TopLevels = []string{"contact", "flow"}
	cfg.Vocabulary.Fields = map[string][]string{"contact.fields": {"district"}}
	cfg.Vocabulary.Functions = []string{"WORD_COUNT"}
	cfg.Vocabulary.Driver = vocabulary.DriverSQLite
	cfg.Vocabulary.DSN = "vocab.db"
	cfg.Cache.TTL = 2 * time.Minute
	cfg.Server.Port = 9000
	cfg.Server.JWTSecret = "s3cret"
	cfg.Server.CORSOrigins = []string{"https://editor.example.org"}

	if err := Save(path, cfg, false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Prefix != "$" {
		t.Errorf("Prefix = %q, want $", loaded.Prefix)
	}
	if strings.Join(loaded.TopLevels, ",") != "contact,flow" {
		t.Errorf("TopLevels = %v", loaded.TopLevels)
	}
	if got := loaded.Vocabulary.Fields["contact.fields"]; len(got) != 1 || got[0] != "district" {
		t.Errorf("Fields = %v", loaded.Vocabulary.Fields)
	}
	if len(loaded.Vocabulary.Functions) != 1 || loaded.Vocabulary.Functions[0] != "WORD_COUNT" {
		t.Errorf("Functions = %v", loaded.Vocabulary.Functions)
	}
	if loaded.Vocabulary.Driver != vocabulary.DriverSQLite || loaded.Vocabulary.DSN != "vocab.db" {
		t.Errorf("Vocabulary = %+v", loaded.Vocabulary)
	}
	if loaded.Cache.TTL != 2*time.Minute {
		t.Errorf("Cache.TTL = %v, want 2m", loaded.Cache.TTL)
	}
	if loaded.Server.Port != 9000 || loaded.Server.JWTSecret != "s3cret" || len(loaded.Server.CORSOrigins) != 1 {
		t.Errorf("Server = %+v", loaded.Server)
	}
}

func TestSave_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excellent.yml")

	if err := Save(path, Default(), false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := Save(path, Default(), false); err == nil {
		t.Error("expected error when the file exists")
	}

	cfg := Default()
	cfg.Server.Port = 7070
	if err := Save(path, cfg, true); err != nil {
		t.Fatalf("Save(overwrite) error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", loaded.Server.Port)
	}
}

func TestSave_Invalid(t *testing.T) {
	cfg := Default()
	cfg.Prefix = "@@"

	if err := Save(filepath.Join(t.TempDir(), "excellent.yml"), cfg, false); err == nil {
		t.Error("expected validation error")
	}
}
