package memartifact

import (
	"context"
	"errors"
	"testing"

	"github.com/statsmith/statsmith/internal/artifact"
)

func TestStore(t *testing.T) {
	s := New()
	ctx := context.Background()

	data := []byte("rows")
	if err := s.Write(ctx, "snapshots/rows-1", data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data[0] = 'X'

	got, err := s.Read(ctx, "snapshots/rows-1")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "rows" {
		t.Errorf("Read() = %q, want %q", got, "rows")
	}

	if err := s.Write(ctx, "leaderboards", []byte("{}")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	names, _ := s.List(ctx, "snapshots/")
	if len(names) != 1 || names[0] != "snapshots/rows-1" {
		t.Errorf("List() = %v, want [snapshots/rows-1]", names)
	}

	if err := s.Delete(ctx, "snapshots/rows-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Read(ctx, "snapshots/rows-1"); !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("Read() after Delete error = %v, want ErrNotFound", err)
	}
}
