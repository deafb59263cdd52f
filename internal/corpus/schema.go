package corpus

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.yaml
var schemaFS embed.FS

// EntryKind is the filesystem kind a schema node requires.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "directory"
)

// Node declares one required filesystem entry. Children are only checked
// when declared; a directory without them may hold anything.
type Node struct {
	Name     string    `yaml:"name"`
	Kind     EntryKind `yaml:"type"`
	Children []Node    `yaml:"children,omitempty"`
}

// Schema is the list of entries required directly under a corpus root.
type Schema []Node

// StructureError reports the first entry of a corpus root that does not
// match its schema.
type StructureError struct {
	Path     string
	Expected EntryKind
	Found    string // "missing", "file", "directory", "other" or an unknown declared kind
}

func (e *StructureError) Error() string {
	if e.Found == "missing" {
		return fmt.Sprintf("corpus structure: %s is not present (expected %s)", e.Path, e.Expected)
	}
	if e.Expected != KindFile && e.Expected != KindDirectory {
		return fmt.Sprintf("corpus structure: unknown type %q declared for %s", e.Expected, e.Path)
	}
	return fmt.Sprintf("corpus structure: %s expected to be of type %s, found %s", e.Path, e.Expected, e.Found)
}

// IsStructureError reports whether err (or any error in its chain) is a StructureError.
func IsStructureError(err error) bool {
	var se *StructureError
	return errors.As(err, &se)
}

// ParseSchema decodes a YAML schema descriptor.
func ParseSchema(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return s, nil
}

func builtinSchema(kind Kind) Schema {
	data, err := schemaFS.ReadFile("schemas/" + string(kind) + ".yaml")
	if err != nil {
		panic(fmt.Sprintf("corpus: missing embedded schema for %s: %v", kind, err))
	}
	s, err := ParseSchema(data)
	if err != nil {
		panic(fmt.Sprintf("corpus: embedded schema for %s: %v", kind, err))
	}
	return s
}

// Verify checks root against s, descending into declared children.
func (s Schema) Verify(root string) error {
	return verifyNodes(root, s)
}

func verifyNodes(dir string, nodes []Node) error {
	for _, n := range nodes {
		p := filepath.Join(dir, n.Name)
		if n.Kind != KindFile && n.Kind != KindDirectory {
			return &StructureError{Path: p, Expected: n.Kind, Found: string(n.Kind)}
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return &StructureError{Path: p, Expected: n.Kind, Found: "missing"}
			}
			return fmt.Errorf("checking %s: %w", p, err)
		}
		if found := entryKind(info); found != string(n.Kind) {
			return &StructureError{Path: p, Expected: n.Kind, Found: found}
		}
		if n.Kind == KindDirectory && n.Children != nil {
			if err := verifyNodes(p, n.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

func entryKind(info os.FileInfo) string {
	switch {
	case info.IsDir():
		return string(KindDirectory)
	case info.Mode().IsRegular():
		return string(KindFile)
	default:
		return "other"
	}
}
