package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/bowl"
)

func TestFileStoreLoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "none.json"), nil)

	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(snap.Bowls) != 0 || len(snap.ScanHistory) != 0 {
		t.Errorf("Load() = %+v, want empty", snap)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bowls.json")
	s := NewFileStore(path, apt.NewNoopLogger())

	at := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	want := bowl.Snapshot{
		Bowls: []bowl.ContainerRecord{
			{BowlCode: "ABC123", User: "Alice", Status: "active", Color: "green", Customer: "Bob", CreatedAt: at, UpdatedAt: at},
			{BowlCode: "XYZ999", User: "Bob", Status: "returned", Color: "black", CreatedAt: at, UpdatedAt: at},
		},
		ScanHistory: []bowl.ScanEventRecord{
			{BowlCode: "ABC123", Operation: "kitchen", User: "Alice", Timestamp: at},
		},
		LastSaved: at,
	}

	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(got.Bowls) != 2 || got.Bowls[0] != want.Bowls[0] || got.Bowls[1] != want.Bowls[1] {
		t.Errorf("Bowls = %+v", got.Bowls)
	}
	if len(got.ScanHistory) != 1 || got.ScanHistory[0] != want.ScanHistory[0] {
		t.Errorf("ScanHistory = %+v", got.ScanHistory)
	}
	if !got.LastSaved.Equal(at) {
		t.Errorf("LastSaved = %v", got.LastSaved)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bowls.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path, nil).Load(context.Background()); err == nil {
		t.Error("Load() expected an error for a corrupt file")
	}
}

func TestFileStoreRestoresRegistry(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bowls.json")
	s := NewFileStore(path, nil)

	registry := bowl.NewRegistry(nil)
	op := bowl.NewOperator(registry, nil, nil)
	op.ProcessScan(ctx, bowl.ScanRequest{RawCode: "ABC123", Operation: kitchenOp, User: "Alice"})

	if err := s.Save(ctx, registry.Snapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	restored, err := bowl.RestoreRegistry(snap, nil)
	if err != nil {
		t.Fatalf("RestoreRegistry() error = %v", err)
	}
	if c, ok := restored.Current("ABC123"); !ok || c.User != "Alice" {
		t.Errorf("Current() = %+v, %v", c, ok)
	}
}
