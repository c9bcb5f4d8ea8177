package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_CreateAndRead(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "plots", "run-1")

	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if !fsys.Exists(dir) {
		t.Fatal("expected directory to exist")
	}

	path := filepath.Join(dir, "roc.png")
	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("png")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("expected 'png', got %q", data)
	}

	r, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "png" {
		t.Errorf("expected 'png' from Open, got %q", got)
	}
}

func TestOSFileSystem_ExistsMissing(t *testing.T) {
	if (OSFileSystem{}).Exists(filepath.Join(t.TempDir(), "missing.csv")) {
		t.Error("expected missing file to not exist")
	}
}

func TestMemoryFileSystem_WriteVisibleOnClose(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("out/report.html")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Write([]byte("<html>"))

	data, err := m.ReadFile("out/report.html")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}

	w.Close()
	data, _ = m.ReadFile("out/report.html")
	if string(data) != "<html>" {
		t.Errorf("expected '<html>', got %q", data)
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	m := NewMemoryFileSystem()
	m.WriteFile("input.csv", []byte("label\n1\n"))

	r, err := m.Open("./input.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "label\n1\n" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	m := NewMemoryFileSystem()

	if _, err := m.Open("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist from Open, got %v", err)
	}
	if _, err := m.ReadFile("nope"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist from ReadFile, got %v", err)
	}
}

func TestMemoryFileSystem_MkdirAll(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, p := range []string{"a", "a/b", "a/b/c"} {
		if !m.Exists(p) {
			t.Errorf("expected %s to exist", p)
		}
	}
	if m.Exists("a/b/c/d") {
		t.Error("did not expect a/b/c/d to exist")
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	m := NewMemoryFileSystem()
	src := []byte("abc")
	m.WriteFile("f", src)
	src[0] = 'x'

	data, _ := m.ReadFile("f")
	if string(data) != "abc" {
		t.Errorf("stored data changed with caller's slice: %q", data)
	}
	data[1] = 'y'
	again, _ := m.ReadFile("f")
	if string(again) != "abc" {
		t.Errorf("stored data changed with returned slice: %q", again)
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	m := NewMemoryFileSystem()
	m.WriteFile("b.png", nil)
	m.WriteFile("a.png", nil)
	w, _ := m.Create("c.html")
	w.Close()

	got := m.Files()
	want := []string{"a.png", "b.png", "c.html"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
