package tasks

import (
	"fmt"
	"testing"
	"time"
)

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestLogSink(t *testing.T) {
	t.Run("appends in order", func(t *testing.T) {
		s := NewLogSink(5)
		for i := range 3 {
			s.Append(LevelInfo, SourceServer, fmt.Sprintf("line %d", i))
		}

		got := texts(s.Entries())
		want := []string{"line 0", "line 1", "line 2"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("Entries() = %v, want %v", got, want)
		}
		if s.Len() != 3 || s.Evicted() != 0 || s.LastSeq() != 3 {
			t.Errorf("unexpected counters len=%d evicted=%d seq=%d", s.Len(), s.Evicted(), s.LastSeq())
		}
	})

	t.Run("evicts oldest first", func(t *testing.T) {
		s := NewLogSink(3)
		for i := range 7 {
			s.Append(LevelInfo, SourceServer, fmt.Sprintf("line %d", i))
		}

		got := texts(s.Entries())
		want := []string{"line 4", "line 5", "line 6"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("Entries() = %v, want %v", got, want)
		}
		if s.Evicted() != 4 {
			t.Errorf("Evicted() = %d, want 4", s.Evicted())
		}

		entries := s.Entries()
		for i := 1; i < len(entries); i++ {
			if entries[i].Seq != entries[i-1].Seq+1 {
				t.Errorf("sequence gap between %d and %d", entries[i-1].Seq, entries[i].Seq)
			}
		}
	})

	t.Run("tail", func(t *testing.T) {
		s := NewLogSink(4)
		for i := range 6 {
			s.Append(LevelInfo, SourceServer, fmt.Sprintf("%d", i))
		}

		if got := texts(s.Tail(2)); fmt.Sprint(got) != "[4 5]" {
			t.Errorf("Tail(2) = %v", got)
		}
		if got := s.Tail(10); len(got) != 4 {
			t.Errorf("Tail(10) returned %d entries", len(got))
		}
		if got := s.Tail(0); len(got) != 0 {
			t.Errorf("Tail(0) returned %d entries", len(got))
		}
	})

	t.Run("since", func(t *testing.T) {
		s := NewLogSink(10)
		for i := range 5 {
			s.Append(LevelInfo, SourceServer, fmt.Sprintf("%d", i))
		}

		if got := texts(s.Since(3)); fmt.Sprint(got) != "[3 4]" {
			t.Errorf("Since(3) = %v", got)
		}
		if got := s.Since(5); len(got) != 0 {
			t.Errorf("Since(5) = %v", got)
		}
	})

	t.Run("since an evicted sequence returns what is retained", func(t *testing.T) {
		s := NewLogSink(2)
		for i := range 5 {
			s.Append(LevelInfo, SourceServer, fmt.Sprintf("%d", i))
		}
		if got := texts(s.Since(0)); fmt.Sprint(got) != "[3 4]" {
			t.Errorf("Since(0) = %v", got)
		}
	})

	t.Run("default capacity", func(t *testing.T) {
		if got := NewLogSink(0).Cap(); got != DefaultLogCapacity {
			t.Errorf("Cap() = %d, want %d", got, DefaultLogCapacity)
		}
	})

	t.Run("entry rendering", func(t *testing.T) {
		s := NewLogSink(1)
		s.now = func() time.Time { return time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC) }

		e := s.Append(LevelSuccess, SourceClient, "Task finished.")
		if got := e.String(); got != "[14:05:09] Task finished." {
			t.Errorf("String() = %q", got)
		}
	})
}
