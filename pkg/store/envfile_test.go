package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnvFileStoreSetAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	s, err := NewEnvFileStore(path)
	if err != nil {
		t.Fatalf("NewEnvFileStore() error = %v", err)
	}
	ctx := context.Background()

	// Missing file and missing key both read as empty.
	if got, err := s.GetValue(ctx, "Z_AI_COOKIES"); err != nil || got != "" {
		t.Fatalf("GetValue() on missing file = %q, %v", got, err)
	}

	if err := s.SetValue(ctx, "Z_AI_COOKIES", "tok-a,tok-b"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	got, err := s.GetValue(ctx, "Z_AI_COOKIES")
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if got != "tok-a,tok-b" {
		t.Errorf("GetValue() = %q, want tok-a,tok-b", got)
	}
}

func TestEnvFileStorePreservesOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	initial := "# proxy settings\nPORT=8080\nZ_AI_COOKIES=old-token\nDEBUG=true\n"
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewEnvFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetValue(context.Background(), "Z_AI_COOKIES", "new-token"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "# proxy settings\nPORT=8080\nZ_AI_COOKIES=new-token\nDEBUG=true\n"
	if string(data) != want {
		t.Errorf("file after update =\n%s\nwant\n%s", data, want)
	}
}

func TestEnvFileStoreAppendsMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PORT=8080\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewEnvFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetValue(context.Background(), "Z_AI_COOKIES", "tok"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "PORT=8080\n") ||
		!strings.Contains(string(data), "Z_AI_COOKIES=tok\n") {
		t.Errorf("file after append =\n%s", data)
	}
}

func TestEnvFileStoreQuotedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(`Z_AI_COOKIES="tok-a,tok-b"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewEnvFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetValue(context.Background(), "Z_AI_COOKIES")
	if err != nil {
		t.Fatal(err)
	}
	if got != "tok-a,tok-b" {
		t.Errorf("GetValue() = %q, want unquoted tok-a,tok-b", got)
	}
}

func TestEnvFileStoreRejectsNewlineValue(t *testing.T) {
	s, err := NewEnvFileStore(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetValue(context.Background(), "KEY", "a\nb"); err == nil {
		t.Error("SetValue() with embedded newline should fail")
	}
}

func TestEnvFileStoreSelfWriteDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	s, err := NewEnvFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.SetValue(ctx, "Z_AI_COOKIES", "mine"); err != nil {
		t.Fatal(err)
	}
	if !s.wroteValue("Z_AI_COOKIES", "mine") {
		t.Error("own write should be recognized")
	}
	if s.wroteValue("Z_AI_COOKIES", "external") {
		t.Error("external value should not be recognized as our write")
	}
}
