package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kapu/conference-companion-go/internal/cms"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadExports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "speakers.json", `[{"_id":"s1","name":"Ada"}]`)
	writeFile(t, dir, "sponsors.json", `{"items":[{"_id":"a"},{"_id":"b"}]}`)
	writeFile(t, dir, "notes.txt", "ignored")

	exports, err := loadExports(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}
	if exports[0].Collection != cms.CollectionSpeakers || exports[0].Count != 1 {
		t.Fatalf("unexpected first export: %+v", exports[0])
	}
	if exports[1].Collection != cms.CollectionSponsors || exports[1].Count != 2 {
		t.Fatalf("unexpected second export: %+v", exports[1])
	}
}

func TestLoadExportsRejectsUnknownCollection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "members.json", `[]`)
	if _, err := loadExports(dir); err == nil {
		t.Fatalf("expected error for unknown collection file")
	}
}

func TestLoadExportsRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "talks.json", `{"items": "x"}`)
	if _, err := loadExports(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}
