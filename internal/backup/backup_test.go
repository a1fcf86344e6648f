package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestFileMissingIsNoop(t *testing.T) {
	moved, err := File(filepath.Join(t.TempDir(), "absent.gro"))
	if err != nil {
		t.Fatalf("File error: %v", err)
	}
	if moved != "" {
		t.Errorf("moved = %q, want empty", moved)
	}
}

func TestFileRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mmt.gro")
	writeFile(t, path, "first")

	moved, err := File(path)
	if err != nil {
		t.Fatalf("File error: %v", err)
	}
	if moved != path+".1" {
		t.Errorf("moved = %q, want %q", moved, path+".1")
	}
	if got := readFile(t, path+".1"); got != "first" {
		t.Errorf("backup content = %q, want %q", got, "first")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original file still present after rotation")
	}
}

func TestFileShiftsOlderBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mmt.gro")
	writeFile(t, path, "third")
	writeFile(t, path+".1", "second")
	writeFile(t, path+".2", "first")

	if _, err := File(path); err != nil {
		t.Fatalf("File error: %v", err)
	}
	if got := readFile(t, path+".1"); got != "third" {
		t.Errorf("newest backup = %q, want %q", got, "third")
	}
	if got := readFile(t, path+".2"); got != "second" {
		t.Errorf("middle backup = %q, want %q", got, "second")
	}
	if got := readFile(t, path+".3"); got != "first" {
		t.Errorf("oldest backup = %q, want %q", got, "first")
	}
}

func TestFileIgnoresUnrelatedSuffixes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mmt.gro")
	writeFile(t, path, "current")
	writeFile(t, path+".bak", "unrelated")

	if _, err := File(path); err != nil {
		t.Fatalf("File error: %v", err)
	}
	if got := readFile(t, path+".bak"); got != "unrelated" {
		t.Errorf("unrelated file touched: %q", got)
	}
}
