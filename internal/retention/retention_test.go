package retention

import (
	"context"
	"testing"
	"time"

	"github.com/raoulx24/rsync-snapper/internal/logging"
	"github.com/raoulx24/rsync-snapper/internal/snapshot"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(snapshot.DateLayout, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func TestCandidateForDeletion(t *testing.T) {
	cases := []struct {
		today    string
		keepDays int
		want     string
	}{
		{"2024-03-01", 1, "2024-02-29"}, // leap day
		{"2023-03-01", 1, "2023-02-28"},
		{"2025-01-03", 5, "2024-12-29"}, // year boundary
		{"2026-08-26", 30, "2026-07-27"},
		{"2024-03-31", 31, "2024-02-29"},
		{"2026-01-01", 365, "2025-01-01"},
	}

	for _, c := range cases {
		p := Policy{KeepDays: c.keepDays}
		got := p.CandidateForDeletion(day(t, c.today)).Format(snapshot.DateLayout)
		if got != c.want {
			t.Errorf("candidate(%s, %d) = %s, want %s", c.today, c.keepDays, got, c.want)
		}
	}
}

func TestShouldDelete(t *testing.T) {
	keepFirst := Policy{KeepDays: 7, KeepMonthlyFirst: true}
	plain := Policy{KeepDays: 7}

	firsts := []string{"2024-01-01", "2024-02-01", "2024-12-01", "2025-06-01"}
	for _, s := range firsts {
		if keepFirst.ShouldDelete(day(t, s)) {
			t.Errorf("ShouldDelete(%s) with keepMonthlyFirst = true, want false", s)
		}
		if !plain.ShouldDelete(day(t, s)) {
			t.Errorf("ShouldDelete(%s) without keepMonthlyFirst = false, want true", s)
		}
	}

	others := []string{"2024-01-02", "2024-02-29", "2024-12-31"}
	for _, s := range others {
		if !keepFirst.ShouldDelete(day(t, s)) {
			t.Errorf("ShouldDelete(%s) = false, want true", s)
		}
	}
}

// fakeStore is an in-memory snapshot.Store.
type fakeStore struct {
	snaps   map[string]bool
	latest  string
	removed []string
}

func newFakeStore(dates ...string) *fakeStore {
	s := &fakeStore{snaps: map[string]bool{}}
	for _, d := range dates {
		s.snaps[d] = true
	}
	return s
}

func (s *fakeStore) Dest(date string) string                    { return "/dest/" + date }
func (s *fakeStore) BasePath(date string) string                { return "/dest/" + date }
func (s *fakeStore) EnsureRoot(ctx context.Context) error       { return nil }
func (s *fakeStore) Latest(ctx context.Context) (string, error) { return s.latest, nil }
func (s *fakeStore) SetLatest(ctx context.Context, date string) error {
	s.latest = date
	return nil
}
func (s *fakeStore) Exists(ctx context.Context, date string) (bool, error) {
	return s.snaps[date], nil
}
func (s *fakeStore) Remove(ctx context.Context, date string) error {
	delete(s.snaps, date)
	s.removed = append(s.removed, date)
	return nil
}

func TestApplyRemovesCandidate(t *testing.T) {
	store := newFakeStore("2026-08-19", "2026-08-20")
	e := New(Policy{KeepDays: 7}, logging.Nop())

	removed, err := e.Apply(context.Background(), store, day(t, "2026-08-26"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if removed != "2026-08-19" {
		t.Fatalf("removed = %q, want 2026-08-19", removed)
	}
	if store.snaps["2026-08-19"] {
		t.Error("candidate snapshot still present after sweep")
	}
	if !store.snaps["2026-08-20"] {
		t.Error("non-candidate snapshot was removed")
	}
}

func TestApplyIdempotent(t *testing.T) {
	store := newFakeStore("2026-08-19")
	e := New(Policy{KeepDays: 7}, logging.Nop())
	today := day(t, "2026-08-26")

	if _, err := e.Apply(context.Background(), store, today); err != nil {
		t.Fatalf("first sweep: %v", err)
	}

	// second sweep against the already-pruned set: no error, no deletion
	removed, err := e.Apply(context.Background(), store, today)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if removed != "" {
		t.Fatalf("second sweep removed %q, want nothing", removed)
	}
	if len(store.removed) != 1 {
		t.Fatalf("Remove called %d times, want 1", len(store.removed))
	}
}

func TestApplyKeepsFirstOfMonth(t *testing.T) {
	store := newFakeStore("2026-01-01")
	e := New(Policy{KeepDays: 31, KeepMonthlyFirst: true}, logging.Nop())

	removed, err := e.Apply(context.Background(), store, day(t, "2026-02-01"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if removed != "" {
		t.Fatalf("removed %q, want nothing", removed)
	}
	if !store.snaps["2026-01-01"] {
		t.Error("first-of-month snapshot was removed")
	}
}

func TestUpdateConfig(t *testing.T) {
	store := newFakeStore("2026-08-19")
	e := New(Policy{KeepDays: 30}, logging.Nop())
	e.UpdateConfig(Policy{KeepDays: 7})

	removed, err := e.Apply(context.Background(), store, day(t, "2026-08-26"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if removed != "2026-08-19" {
		t.Fatalf("removed = %q, want 2026-08-19 under reloaded policy", removed)
	}
}
