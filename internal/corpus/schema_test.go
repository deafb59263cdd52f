package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSchemaVerifyOK(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "data", "full")
	writeFile(t, filepath.Join(root, "full", "index"), "")

	if err := builtinSchema(Trec).Verify(root); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSchemaVerifyMissing(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "data", "full")

	err := builtinSchema(Trec).Verify(root)
	var se *StructureError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructureError, got %v", err)
	}
	if se.Found != "missing" || se.Path != filepath.Join(root, "full", "index") {
		t.Errorf("got %+v", se)
	}
}

func TestSchemaVerifyWrongType(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "full/index")
	writeFile(t, filepath.Join(root, "data"), "not a dir")

	err := builtinSchema(Trec).Verify(root)
	var se *StructureError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructureError, got %v", err)
	}
	if se.Expected != KindDirectory || se.Found != "file" {
		t.Errorf("got %+v, want directory expected and file found", se)
	}
}

func TestSchemaVerifyNestedChildren(t *testing.T) {
	schema, err := ParseSchema([]byte(`
- name: a
  type: directory
  children:
    - name: b
      type: directory
      children:
        - {name: c.txt, type: file}
`))
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	mkdirs(t, root, "a/b")

	if !IsStructureError(schema.Verify(root)) {
		t.Fatal("expected structure error for missing nested file")
	}
	writeFile(t, filepath.Join(root, "a", "b", "c.txt"), "x")
	if err := schema.Verify(root); err != nil {
		t.Fatalf("Verify after creating file: %v", err)
	}
}

func TestSchemaVerifyUnknownDeclaredKind(t *testing.T) {
	schema := Schema{{Name: "x", Kind: "symlink"}}
	err := schema.Verify(t.TempDir())
	var se *StructureError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructureError, got %v", err)
	}
	if se.Expected != "symlink" {
		t.Errorf("Expected = %q", se.Expected)
	}
}

func TestBuiltinSchemasParse(t *testing.T) {
	for _, k := range Kinds() {
		if len(builtinSchema(k)) == 0 {
			t.Errorf("schema for %s is empty", k)
		}
	}
}

func TestNewRejectsBadStructureBeforeReading(t *testing.T) {
	_, err := New(Ling, t.TempDir(), Options{})
	if !IsStructureError(err) {
		t.Fatalf("expected structure error, got %v", err)
	}
}

func TestParseKindUnknown(t *testing.T) {
	if _, err := ParseKind("spamassassin"); !IsUnknownType(err) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
	k, err := ParseKind("trec")
	if err != nil || k != Trec {
		t.Fatalf("ParseKind(trec) = %v, %v", k, err)
	}
}
