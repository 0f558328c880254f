package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"media-intake/internal/intake"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustPolicy(t *testing.T, cfg intake.PolicyConfig) *intake.Policy {
	t.Helper()
	p, err := intake.NewPolicy(cfg)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	return p
}

func file(name, mime string, size int) intake.File {
	return intake.NewFile(name, mime, make([]byte, size))
}

func TestRecordEventAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	policy := mustPolicy(t, intake.PolicyConfig{Accept: "image/*", MaxFileSize: "1KB", AllowMultiple: true})
	files := []intake.File{
		file("a.png", "image/png", 10),
		file("notes.txt", "text/plain", 10),
		file("b.jpg", "image/jpeg", 2048),
		file("c.gif", "image/gif", 20),
	}
	res := intake.Partition(files, policy)

	ev, err := s.RecordEvent(ctx, intake.OriginAPI, policy.String(), files, res)
	if err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
	if ev.ID == "" {
		t.Fatal("event id is empty")
	}
	if ev.AcceptedCount != 2 || ev.RejectedCount != 2 || ev.AcceptedBytes != 30 {
		t.Errorf("counts = %d/%d/%d", ev.AcceptedCount, ev.RejectedCount, ev.AcceptedBytes)
	}

	got, err := s.Get(ctx, ev.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Origin != intake.OriginAPI || got.Policy != policy.String() {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.Files) != 4 {
		t.Fatalf("len(Files) = %d, want 4", len(got.Files))
	}

	want := []struct {
		name    string
		outcome Outcome
		kind    intake.ErrorKind
	}{
		{"a.png", OutcomeAccepted, ""},
		{"notes.txt", OutcomeRejected, intake.TypeRejected},
		{"b.jpg", OutcomeRejected, intake.SizeTooLarge},
		{"c.gif", OutcomeAccepted, ""},
	}
	for i, w := range want {
		f := got.Files[i]
		if f.Position != i || f.Name != w.name || f.Outcome != w.outcome || f.Kind != w.kind {
			t.Errorf("Files[%d] = %+v, want %s %s %s", i, f, w.name, w.outcome, w.kind)
		}
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	policy := intake.AllowAll()

	var ids []string
	for i := 0; i < 5; i++ {
		files := []intake.File{file("f.bin", "", i+1)}
		ev, err := s.RecordEvent(ctx, intake.OriginCLI, policy.String(), files, intake.Partition(files, policy))
		if err != nil {
			t.Fatalf("RecordEvent(%d) error = %v", i, err)
		}
		ids = append(ids, ev.ID)
	}

	events, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	for i, ev := range events {
		if want := ids[len(ids)-1-i]; ev.ID != want {
			t.Errorf("events[%d].ID = %s, want %s", i, ev.ID, want)
		}
		if len(ev.Files) != 1 {
			t.Errorf("events[%d] has %d files", i, len(ev.Files))
		}
	}

	all, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("Recent(0) returned %d events, want 5", len(all))
	}
}

func TestRecentEmpty(t *testing.T) {
	s := newTestStore(t)
	events, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("Recent() = %#v, want empty non-nil slice", events)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	policy := mustPolicy(t, intake.PolicyConfig{AllowMultiple: false})
	files := []intake.File{file("a", "", 1), file("b", "", 1), file("c", "", 1)}
	if _, err := s.RecordEvent(ctx, intake.OriginDrop, policy.String(), files, intake.Partition(files, policy)); err != nil {
		t.Fatal(err)
	}

	stats := s.GetStats()
	if stats.TotalEvents != 1 || stats.AcceptedFiles != 1 || stats.RejectedFiles != 2 {
		t.Errorf("GetStats() = %+v, want 1 event, 1 accepted, 2 rejected", stats)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNewInvalidPath(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "intake.db"))
	if err == nil {
		t.Fatal("expected error for a database in a missing directory")
	}
}

func TestFileRecordsDuplicates(t *testing.T) {
	policy := mustPolicy(t, intake.PolicyConfig{MaxTotalFileSize: "15B", AllowMultiple: true})
	files := []intake.File{file("same", "", 10), file("same", "", 10), file("other", "", 1)}
	res := intake.Partition(files, policy)

	records := fileRecords(files, res)
	outcomes := []Outcome{records[0].Outcome, records[1].Outcome, records[2].Outcome}
	want := []Outcome{OutcomeAccepted, OutcomeRejected, OutcomeRejected}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Errorf("records[%d].Outcome = %s, want %s", i, outcomes[i], want[i])
		}
	}
	if records[1].Kind != intake.TotalSizeExceeded {
		t.Errorf("records[1].Kind = %s, want total_size_exceeded", records[1].Kind)
	}
}
