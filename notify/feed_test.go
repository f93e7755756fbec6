package notify

import (
	"testing"
	"time"
)

func TestRelativeAgeBuckets(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		created time.Time
		want    string
	}{
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(time.Minute), "just now"},
		{now.Add(-time.Minute), "1m ago"},
		{now.Add(-59 * time.Minute), "59m ago"},
		{now.Add(-2 * time.Hour), "2h ago"},
		{now.Add(-24 * time.Hour), "1d ago"},
		{now.Add(-10 * 24 * time.Hour), "10d ago"},
	}
	for _, tc := range cases {
		if got := RelativeAge(tc.created, now); got != tc.want {
			t.Fatalf("RelativeAge(%v): want %q, got %q", now.Sub(tc.created), tc.want, got)
		}
	}

	item := Item{CreatedAt: now.Add(-5 * time.Minute)}
	if item.Age(now) != "5m ago" || item.Age(now.Add(time.Hour)) != "1h ago" {
		t.Fatal("age must be computed at read time")
	}
}

func TestFeedMergeReplacesByID(t *testing.T) {
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	f := NewFeed()
	f.Merge([]Item{
		{ID: "b", Status: "Pending", CreatedAt: base},
		{ID: "a", Status: "Pending", CreatedAt: base},
		{ID: "c", Status: "Pending", CreatedAt: base.Add(time.Hour)},
	})
	f.MarkRead("a")

	for i := 0; i < 3; i++ {
		f.Merge([]Item{{ID: "a", Status: "Pending", Title: "updated", CreatedAt: base}})
	}

	items := f.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	order := []string{items[0].ID, items[1].ID, items[2].ID}
	if order[0] != "c" || order[1] != "a" || order[2] != "b" {
		t.Fatalf("unexpected order %v", order)
	}
	if items[1].Title != "updated" || !items[1].Read {
		t.Fatalf("replacement must update fields and keep read flag: %+v", items[1])
	}
}

func TestFeedUnreadCountDerived(t *testing.T) {
	f := NewFeed()
	f.Merge([]Item{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: ""}})

	if f.UnreadCount() != 3 {
		t.Fatalf("unread: %d", f.UnreadCount())
	}
	if !f.MarkRead("2") || f.MarkRead("missing") {
		t.Fatal("MarkRead result mismatch")
	}
	if f.UnreadCount() != 2 {
		t.Fatalf("unread after MarkRead: %d", f.UnreadCount())
	}
	if n := f.MarkAllRead(); n != 2 {
		t.Fatalf("MarkAllRead changed %d", n)
	}
	if f.UnreadCount() != 0 {
		t.Fatal("unread must be zero after MarkAllRead")
	}

	unread := 0
	for _, item := range f.Items() {
		if !item.Read {
			unread++
		}
	}
	if unread != f.UnreadCount() {
		t.Fatal("unread count drifted from items")
	}
}
