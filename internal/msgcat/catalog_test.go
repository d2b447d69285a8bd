package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderEmbedded(t *testing.T) {
	c := MustDefault()
	got, err := c.Render("status.running", map[string]any{"Player": "White"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "White to move." {
		t.Fatalf("got %q", got)
	}
	if _, err := c.Render("status.running", map[string]any{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := c.Render("nope", nil); err == nil {
		t.Fatalf("expected template not found")
	}
	if s := c.Text("nope", nil, "fallback"); s != "fallback" {
		t.Fatalf("Text fallback = %q", s)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("status:\n  ready: \"Press to start\"\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, _ := c.Render("status.ready", nil); got != "Press to start" {
		t.Fatalf("override not applied: %q", got)
	}
	if got, _ := c.Render("errors.internal", nil); !strings.Contains(got, "wrong") {
		t.Fatalf("embedded key lost: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("status:\n  ready: one\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.yml"), []byte("status:\n  ready: two\n"), 0o644)
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
