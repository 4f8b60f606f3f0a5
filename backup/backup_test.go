package backup

import (
	"bytes"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/mem"
	"github.com/nickyhof/StructDB/sql"
)

type Project struct {
	ID      int64     `db:"id,pk"`
	Name    string    `db:"name"`
	Started time.Time `db:"started"`
}

type Issue struct {
	ID        int64             `db:"id,pk"`
	ProjectId core.Ref[Project] `db:"project_id"`
	Title     string            `db:"title"`
	Data      []byte            `db:"data,nullable"`
}

func setupData(t *testing.T) (*mem.Backend, *core.Registry) {
	t.Helper()
	backend := mem.New()
	builder := sql.NewBuilder(core.NewRegistry())

	for _, proto := range []any{Project{}, Issue{}} {
		desc, _, err := builder.Registry().DescribeValue(proto)
		if err != nil {
			t.Fatalf("Failed to describe %T: %v", proto, err)
		}
		if err := backend.CreateTable(desc); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	started := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	ins, err := builder.Insert(&Project{Name: "apollo", Started: started})
	if err != nil {
		t.Fatalf("Failed to build insert: %v", err)
	}
	projectKey, err := backend.Insert(ins)
	if err != nil {
		t.Fatalf("Failed to insert project: %v", err)
	}

	ins, err = builder.Insert(&Issue{
		ProjectId: core.NewRef[Project](projectKey),
		Title:     "lift off",
		Data:      []byte{0xde, 0xad},
	})
	if err != nil {
		t.Fatalf("Failed to build insert: %v", err)
	}
	if _, err := backend.Insert(ins); err != nil {
		t.Fatalf("Failed to insert issue: %v", err)
	}

	return backend, builder.Registry()
}

func TestExportImportRoundTrip(t *testing.T) {
	source, reg := setupData(t)
	dump := filepath.Join(t.TempDir(), "dump.jsonl")

	if err := Export(source, reg, dump, nil, Project{}, Issue{}); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	// Restore into a fresh backend with the tables pre-created.
	restored := mem.New()
	for _, proto := range []any{Project{}, Issue{}} {
		desc, _, _ := reg.DescribeValue(proto)
		if err := restored.CreateTable(desc); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}
	if err := Import(restored, reg, dump, nil, Project{}, Issue{}); err != nil {
		t.Fatalf("Failed to import: %v", err)
	}

	builder := sql.NewBuilder(reg)
	match, _ := builder.Match(Issue{})
	count := 0
	for row, err := range restored.Select(match) {
		if err != nil {
			t.Fatalf("Select yielded error: %v", err)
		}
		count++
		// Identity and reference keys survive the round trip.
		if row["id"] != int64(1) || row["project_id"] != int64(1) {
			t.Errorf("Expected preserved keys, got %v", row)
		}
		if row["title"] != "lift off" {
			t.Errorf("Expected title to survive, got %v", row["title"])
		}
		if !bytes.Equal(row["data"].([]byte), []byte{0xde, 0xad}) {
			t.Errorf("Expected bytes to survive base64, got %v", row["data"])
		}
	}
	if count != 1 {
		t.Errorf("Expected 1 restored issue, got %d", count)
	}
}

func TestImportUnlistedTable(t *testing.T) {
	source, reg := setupData(t)
	dump := filepath.Join(t.TempDir(), "dump.jsonl")

	if err := Export(source, reg, dump, nil, Project{}, Issue{}); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	restored := mem.New()
	desc, _, _ := reg.DescribeValue(Project{})
	if err := restored.CreateTable(desc); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	err := Import(restored, reg, dump, nil, Project{})
	if err == nil {
		t.Fatal("Expected an error for a dump containing an unlisted table")
	}
	if _, ok := err.(*core.SchemaError); !ok {
		t.Errorf("Expected SchemaError, got %T", err)
	}
}

type captureWriter struct {
	buf bytes.Buffer
}

func (w *captureWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *captureWriter) Close() error                { return nil }

func TestExportFormat(t *testing.T) {
	source, reg := setupData(t)

	capture := &captureWriter{}
	origCreate := osCreate
	osCreate = func(string) (io.WriteCloser, error) { return capture, nil }
	defer func() { osCreate = origCreate }()

	if err := Export(source, reg, "ignored.jsonl", nil, Project{}); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(capture.buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"table":"project"`) || !strings.Contains(lines[0], `"apollo"`) {
		t.Errorf("Unexpected dump line: %s", lines[0])
	}
}

func TestImportFromReader(t *testing.T) {
	_, reg := setupData(t)

	dump := `{"table":"project","row":{"id":5,"name":"gemini","started":"2026-02-01T00:00:00Z"}}` + "\n"
	origOpen := osOpen
	osOpen = func(string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(dump)), nil
	}
	defer func() { osOpen = origOpen }()

	restored := mem.New()
	desc, _, _ := reg.DescribeValue(Project{})
	if err := restored.CreateTable(desc); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if err := Import(restored, reg, "ignored.jsonl", nil, Project{}); err != nil {
		t.Fatalf("Failed to import: %v", err)
	}

	builder := sql.NewBuilder(reg)
	match, _ := builder.Match(Project{Name: "gemini"})
	var keys []int64
	for row, err := range restored.Select(match) {
		if err != nil {
			t.Fatalf("Select yielded error: %v", err)
		}
		keys = append(keys, row["id"].(int64))
	}
	if !reflect.DeepEqual(keys, []int64{5}) {
		t.Errorf("Expected restored key [5], got %v", keys)
	}
}
