package state

import (
	"testing"
	"time"

	"github.com/marque-app/marque/internal/domain"
)

func bm(id string, createdAt time.Time) *domain.Bookmark {
	return &domain.Bookmark{ID: id, OwnerID: "user-1", Title: id, URL: "https://example.com/" + id, CreatedAt: createdAt}
}

func TestListReplaceSortsNewestFirst(t *testing.T) {
	l := NewList()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Replace([]*domain.Bookmark{
		bm("old", base),
		bm("new", base.Add(2*time.Hour)),
		bm("mid", base.Add(time.Hour)),
	})

	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap))
	}
	for i, want := range []string{"new", "mid", "old"} {
		if snap[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, snap[i].ID)
		}
	}
}

func TestListSnapshotReferenceStable(t *testing.T) {
	l := NewList()
	l.Replace([]*domain.Bookmark{bm("a", time.Now())})

	first := l.Snapshot()
	second := l.Snapshot()
	if &first[0] != &second[0] || len(first) != len(second) {
		t.Error("snapshots without intervening writes should be the same slice")
	}
}

func TestListInsertHeadDuplicateGuard(t *testing.T) {
	l := NewList()
	now := time.Now()
	l.Replace([]*domain.Bookmark{bm("abc123", now)})

	if l.InsertHead(bm("abc123", now.Add(time.Minute))) {
		t.Error("inserting an existing id should be rejected")
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 entry after rejected insert, got %d", l.Len())
	}

	if !l.InsertHead(bm("def456", now.Add(time.Minute))) {
		t.Error("inserting a fresh id should succeed")
	}
	if head := l.Snapshot()[0]; head.ID != "def456" {
		t.Errorf("expected new entry at head, got %s", head.ID)
	}
}

func TestListRemove(t *testing.T) {
	l := NewList()
	now := time.Now()
	l.Replace([]*domain.Bookmark{bm("a", now.Add(time.Hour)), bm("b", now)})

	if !l.Remove("a") {
		t.Error("removing a present id should report true")
	}
	if l.Remove("a") {
		t.Error("removing an absent id should report false")
	}
	if _, ok := l.Get("a"); ok {
		t.Error("removed entry should not be retrievable")
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", l.Len())
	}
}

func TestListIDSet(t *testing.T) {
	l := NewList()
	now := time.Now()
	l.Replace([]*domain.Bookmark{bm("a", now), bm("b", now)})

	ids := l.IDSet()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	for _, id := range []string{"a", "b"} {
		if _, ok := ids[id]; !ok {
			t.Errorf("missing id %s", id)
		}
	}
}
