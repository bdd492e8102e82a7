package commands

import (
	"errors"
	"strings"
	"testing"
)

const sqliteConfig = `vocabulary:
  driver: sqlite3
  dsn: vocab.db
`

func TestVocabCommand(t *testing.T) {
	inDir(t, t.TempDir())
	writeFile(t, "excellent.yml", sqliteConfig)

	stdout, _, err := execute(t, "", "vocab", "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(stdout, "ready") {
		t.Errorf("unexpected migrate output:\n%s", stdout)
	}

	if _, _, err := execute(t, "", "vocab", "add", "contact.fields.district", "District from registration"); err != nil {
		t.Fatalf("add path failed: %v", err)
	}
	if _, _, err := execute(t, "", "vocab", "add", "--function", "word_count", "WORD_COUNT(text)"); err != nil {
		t.Fatalf("add function failed: %v", err)
	}

	stdout, _, err = execute(t, "", "vocab", "list", "contact.fields")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, "contact.fields.district") || !strings.Contains(stdout, "District from registration") {
		t.Errorf("unexpected list output:\n%s", stdout)
	}

	stdout, _, err = execute(t, "", "vocab", "list", "--functions")
	if err != nil {
		t.Fatalf("list functions failed: %v", err)
	}
	if !strings.Contains(stdout, "WORD_COUNT") {
		t.Errorf("unexpected list output:\n%s", stdout)
	}

	// the database vocabulary reaches completion
	stdout, _, err = execute(t, "", "context", "--complete", "Hi @contact.fields.dis")
	if err != nil {
		t.Fatalf("context failed: %v", err)
	}
	if !strings.Contains(stdout, "district") {
		t.Errorf("expected district among completions, got:\n%s", stdout)
	}
}

func TestVocabCommand_EmptyList(t *testing.T) {
	inDir(t, t.TempDir())
	writeFile(t, "excellent.yml", sqliteConfig)

	if _, _, err := execute(t, "", "vocab", "migrate"); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	stdout, _, err := execute(t, "", "vocab", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, "No entries found") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestVocabCommand_NotConfigured(t *testing.T) {
	inDir(t, t.TempDir())

	_, _, err := execute(t, "", "vocab", "list")

	var cfgErr configError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configError, got %v", err)
	}
}
