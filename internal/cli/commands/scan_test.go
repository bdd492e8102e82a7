package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/conduit-lang/excellent/pkg/lexer"
)

func TestScanCommand_Table(t *testing.T) {
	inDir(t, t.TempDir())
	writeFile(t, "welcome.txt", "Hi @contact.name, you owe @(SUM(1, 2))")

	stdout, _, err := execute(t, "", "scan", "welcome.txt")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	for _, want := range []string{"Start", "@contact.name", "@(SUM(1, 2))"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestScanCommand_JSON(t *testing.T) {
	inDir(t, t.TempDir())

	stdout, _, err := execute(t, "Hi @contact.name", "scan", "--json")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	var got []lexer.Expression
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}

	want := lexer.Expression{Start: 3, End: 16, Text: "@contact.name"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("expressions = %+v, want [%+v]", got, want)
	}
}

func TestScanCommand_NoExpressions(t *testing.T) {
	inDir(t, t.TempDir())

	stdout, _, err := execute(t, "mail me at bob@example.com", "scan")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(stdout, "No expressions found") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestScanCommand_CustomPrefix(t *testing.T) {
	inDir(t, t.TempDir())
	writeFile(t, "excellent.yml", "prefix: \"$\"\n")

	stdout, _, err := execute(t, "Hi $contact.name @contact.name", "scan", "--json")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	var got []lexer.Expression
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if len(got) != 1 || got[0].Text != "$contact.name" {
		t.Errorf("expressions = %+v", got)
	}
}
