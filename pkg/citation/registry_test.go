package citation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryStartsWithBuiltins(t *testing.T) {
	registry := NewSyntaxRegistry()

	if registry.Count() != 2 {
		t.Errorf("count = %d, want 2 builtins", registry.Count())
	}

	names := registry.List()
	if len(names) != 2 || names[0] != SyntaxDevIDColon || names[1] != SyntaxDevIDDash {
		t.Errorf("names = %v, want builtins in order", names)
	}
}

func TestRegistryRegisterAndExtract(t *testing.T) {
	registry := NewSyntaxRegistry()

	footnoteSyntax, err := NewRegexSyntax("footnote", `\[fn:([^\]]+)\]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Register(footnoteSyntax); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := registry.Extractor().ExtractIDs("See [Dev ID: a] and [fn:b].")
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v, want [a b]", ids)
	}
}

func TestRegistryRejectsBuiltinNameCollision(t *testing.T) {
	registry := NewSyntaxRegistry()

	colliding, err := NewRegexSyntax(SyntaxDevIDColon, `\[x:([^\]]+)\]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Register(colliding); err == nil {
		t.Error("expected error registering over a builtin name")
	}
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	registry := NewSyntaxRegistry()

	syntax, _ := NewRegexSyntax("custom", `\[c:([^\]]+)\]`)
	if err := registry.Register(syntax); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Register(syntax); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestRegistryUnregister(t *testing.T) {
	registry := NewSyntaxRegistry()

	syntax, _ := NewRegexSyntax("custom", `\[c:([^\]]+)\]`)
	if err := registry.Register(syntax); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Unregister("custom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("count = %d, want 2 after unregister", registry.Count())
	}

	if err := registry.Unregister(SyntaxDevIDColon); err == nil {
		t.Error("expected error unregistering a builtin")
	}
}

func TestRegistryLoadDirectory(t *testing.T) {
	syntaxDir := t.TempDir()
	syntaxYAML := "name: footnote\npattern: '\\[fn:([^\\]]+)\\]'\n"
	if err := os.WriteFile(filepath.Join(syntaxDir, "footnote.yaml"), []byte(syntaxYAML), 0o644); err != nil {
		t.Fatalf("writing syntax file: %v", err)
	}

	registry := NewSyntaxRegistry()
	if err := registry.LoadDirectory(syntaxDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if registry.Count() != 3 {
		t.Errorf("count = %d, want 3", registry.Count())
	}

	ids := registry.Extractor().ExtractIDs("Loaded [fn:note-1] works.")
	if len(ids) != 1 || ids[0] != "note-1" {
		t.Errorf("ids = %v, want [note-1]", ids)
	}
}

func TestRegistryLoadDirectoryMissingIsNoop(t *testing.T) {
	registry := NewSyntaxRegistry()

	if err := registry.LoadDirectory(filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Errorf("unexpected error for missing directory: %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("count = %d, want 2", registry.Count())
	}
}

func TestRegistryLoadFileReplacesOnReload(t *testing.T) {
	syntaxDir := t.TempDir()
	syntaxPath := filepath.Join(syntaxDir, "custom.yaml")

	firstVersion := "name: custom\npattern: '\\[v1:([^\\]]+)\\]'\n"
	if err := os.WriteFile(syntaxPath, []byte(firstVersion), 0o644); err != nil {
		t.Fatalf("writing syntax file: %v", err)
	}

	registry := NewSyntaxRegistry()
	if err := registry.LoadFile(syntaxPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	secondVersion := "name: custom\npattern: '\\[v2:([^\\]]+)\\]'\n"
	if err := os.WriteFile(syntaxPath, []byte(secondVersion), 0o644); err != nil {
		t.Fatalf("rewriting syntax file: %v", err)
	}
	if err := registry.LoadFile(syntaxPath); err != nil {
		t.Fatalf("unexpected error on reload: %v", err)
	}

	if registry.Count() != 3 {
		t.Errorf("count = %d, want 3 after reload", registry.Count())
	}
	ids := registry.Extractor().ExtractIDs("[v1:old] [v2:new]")
	if len(ids) != 1 || ids[0] != "new" {
		t.Errorf("ids = %v, want [new] after reload", ids)
	}
}

func TestRegistryLoadFileRejectsBadPattern(t *testing.T) {
	syntaxDir := t.TempDir()
	syntaxPath := filepath.Join(syntaxDir, "broken.yaml")
	brokenYAML := "name: broken\npattern: '([unclosed'\n"
	if err := os.WriteFile(syntaxPath, []byte(brokenYAML), 0o644); err != nil {
		t.Fatalf("writing syntax file: %v", err)
	}

	registry := NewSyntaxRegistry()
	if err := registry.LoadFile(syntaxPath); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
