package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWriteBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	if err := AtomicWriteBytes(path, []byte("hello")); err != nil {
		t.Fatalf("AtomicWriteBytes() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("file content = %q, want 'hello'", data)
	}

	// No temp files may survive a successful write.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".ytup-tmp-") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}

func TestAtomicWriteBytes_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	if err := AtomicWriteBytes(path, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWriteBytes(path, []byte("two")); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "two" {
		t.Errorf("file content = %q, want 'two'", data)
	}
}

func TestAtomicWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")

	in := map[string]string{"01 Intro": "vid-abc"}
	if err := AtomicWriteJSON(path, in); err != nil {
		t.Fatalf("AtomicWriteJSON() error = %v", err)
	}

	var out map[string]string
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if out["01 Intro"] != "vid-abc" {
		t.Errorf("round trip lost data: %v", out)
	}
}

func TestReadJSON_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}

	var v map[string]any
	if err := ReadJSON(path, &v); err == nil {
		t.Error("ReadJSON() should fail for malformed JSON")
	}
}
