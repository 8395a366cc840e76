package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStringFallback(t *testing.T) {
	t.Setenv("BB_TEST_STRING", "  ")
	if got := String("BB_TEST_STRING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
	t.Setenv("BB_TEST_STRING", "value")
	if got := String("BB_TEST_STRING", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("BB_TEST_REQUIRED", "")
	if _, err := RequiredString("BB_TEST_REQUIRED"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestPort(t *testing.T) {
	t.Setenv("BB_TEST_PORT", "70000")
	if _, err := Port("BB_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
	t.Setenv("BB_TEST_PORT", "")
	p, err := Port("BB_TEST_PORT", "8080")
	if err != nil || p != "8080" {
		t.Fatalf("expected fallback port 8080, got %q (%v)", p, err)
	}
}

func TestTypedValues(t *testing.T) {
	t.Setenv("BB_TEST_INT", "12")
	t.Setenv("BB_TEST_BOOL", "true")
	t.Setenv("BB_TEST_DURATION", "24h")
	t.Setenv("BB_TEST_SECONDS", "15")

	if n, err := Int("BB_TEST_INT", 0); err != nil || n != 12 {
		t.Fatalf("Int: got %d (%v)", n, err)
	}
	if b, err := Bool("BB_TEST_BOOL", false); err != nil || !b {
		t.Fatalf("Bool: got %v (%v)", b, err)
	}
	if d, err := Duration("BB_TEST_DURATION", 0); err != nil || d != 24*time.Hour {
		t.Fatalf("Duration: got %s (%v)", d, err)
	}
	if d, err := Duration("BB_TEST_SECONDS", 0); err != nil || d != 15*time.Second {
		t.Fatalf("Duration seconds: got %s (%v)", d, err)
	}

	t.Setenv("BB_TEST_INT", "twelve")
	if _, err := Int("BB_TEST_INT", 0); err == nil {
		t.Fatal("expected error for non-numeric int")
	}
}

func TestList(t *testing.T) {
	t.Setenv("BB_TEST_LIST", "http://a, ,http://b")
	got := List("BB_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Fatalf("unexpected list: %v", got)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("BB_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("BB_TEST_DOTENV", "")
	os.Unsetenv("BB_TEST_DOTENV")

	if err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := String("BB_TEST_DOTENV", ""); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if err := Load(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
