package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/ragmesh/core"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	for _, ft := range []string{"txt", "md", "csv", "TXT"} {
		if _, err := r.Lookup(ft); err != nil {
			t.Errorf("expected built-in extractor for %q, got %v", ft, err)
		}
	}
	if _, err := r.Lookup("pdf"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType for pdf, got %v", err)
	}
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(content []byte, name string) ([]core.Document, error) {
	return []core.Document{{Text: string(content), Metadata: docMetadata(name, "pdf", 0)}}, nil
}

func TestRegistry_RegisterExternal(t *testing.T) {
	r := NewRegistry()
	r.Register("pdf", fakeExtractor{})
	if _, err := r.Lookup("pdf"); err != nil {
		t.Fatalf("registered extractor should be found: %v", err)
	}
	supported := r.Supported()
	want := []string{"csv", "md", "pdf", "txt"}
	if len(supported) != len(want) {
		t.Fatalf("Supported() = %v, want %v", supported, want)
	}
	for i := range want {
		if supported[i] != want[i] {
			t.Errorf("Supported()[%d] = %q, want %q", i, supported[i], want[i])
		}
	}
}

func TestTextExtractor_Chunks(t *testing.T) {
	e := NewTextExtractor()
	content := strings.Repeat("a", 2500)

	docs, err := e.Extract([]byte(content), "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 chunks for 2500 bytes at size 1000, got %d", len(docs))
	}
	for _, d := range docs {
		if d.Metadata["file_name"] != "notes.txt" || d.Metadata["file_type"] != "txt" {
			t.Errorf("chunk metadata incomplete: %v", d.Metadata)
		}
	}
	if len(docs[0].Text) != 1000 || len(docs[2].Text) != 500 {
		t.Errorf("unexpected chunk sizes: %d, %d", len(docs[0].Text), len(docs[2].Text))
	}
}

func TestTextExtractor_EmptyInput(t *testing.T) {
	e := NewTextExtractor()
	if _, err := e.Extract([]byte("   \n\t"), "blank.txt"); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestCSVExtractor(t *testing.T) {
	e := &CSVExtractor{RowsPerChunk: 2}
	content := "name,city\nalice,berlin\nbob,paris\ncarol,rome\n"

	docs, err := e.Extract([]byte(content), "people.csv")
	if err != nil {
		t.Fatal(err)
	}
	// Header summary plus two row blocks (2 rows + 1 row).
	if len(docs) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(docs))
	}
	if !strings.Contains(docs[0].Text, "CSV Headers: name, city") {
		t.Errorf("summary chunk missing headers: %q", docs[0].Text)
	}
	if !strings.Contains(docs[0].Text, "Total Rows: 3") {
		t.Errorf("summary chunk missing row count: %q", docs[0].Text)
	}
	if !strings.Contains(docs[1].Text, "alice, berlin") {
		t.Errorf("first row block wrong: %q", docs[1].Text)
	}
	if docs[2].Metadata["file_type"] != "csv" {
		t.Errorf("metadata type = %q, want csv", docs[2].Metadata["file_type"])
	}
}
