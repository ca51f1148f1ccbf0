package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ports "emipilot/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("expected missing spreadsheet id error, got %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"file"}`), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := loadCredentials(Config{CredentialsJSON: ` {"type":"inline"} `, CredentialsFile: path})
	if err != nil || string(got) != `{"type":"inline"}` {
		t.Errorf("inline credentials = %q, %v", got, err)
	}

	got, err = loadCredentials(Config{CredentialsFile: path})
	if err != nil || string(got) != `{"type":"file"}` {
		t.Errorf("file credentials = %q, %v", got, err)
	}

	if _, err := loadCredentials(Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestA1Range(t *testing.T) {
	tests := map[string]string{
		"EMIs":          "'EMIs'!A1",
		"My EMIs":       "'My EMIs'!A1",
		"Owner's loans": "'Owner''s loans'!A1",
	}
	for sheet, want := range tests {
		if got := a1Range(sheet, "A1"); got != want {
			t.Errorf("a1Range(%q) = %q, want %q", sheet, got, want)
		}
	}
}

func TestWriteSnapshot_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "EMIs"}
	if err := c.WriteSnapshot(context.Background(), ports.Snapshot{}); err == nil {
		t.Error("expected error when service is nil")
	}
}
