package tasks

import (
	"fmt"
	"time"
)

// DefaultLogCapacity matches the server's own log history window.
const DefaultLogCapacity = 1000

// Entry is one status line.
type Entry struct {
	Seq    uint64
	At     time.Time
	Level  Level
	Source Source
	Text   string
}

// String renders the line as "[15:04:05] text".
func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.At.Format("15:04:05"), e.Text)
}

// LogSink is an append-only record of status lines backed by a fixed-capacity ring.
//
// When full, the oldest entry is evicted. Sequence numbers keep increasing across evictions.
type LogSink struct {
	entries []Entry
	start   int
	count   int
	seq     uint64
	evicted uint64
	now     func() time.Time
}

// NewLogSink creates a sink holding at most capacity entries. Non-positive capacity uses [DefaultLogCapacity].
func NewLogSink(capacity int) *LogSink {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogSink{
		entries: make([]Entry, capacity),
		now:     time.Now,
	}
}

// Append records a line and returns the stored entry.
func (s *LogSink) Append(level Level, source Source, text string) Entry {
	s.seq++
	e := Entry{Seq: s.seq, At: s.now(), Level: level, Source: source, Text: text}

	capacity := len(s.entries)
	if s.count < capacity {
		s.entries[(s.start+s.count)%capacity] = e
		s.count++
		return e
	}

	s.entries[s.start] = e
	s.start = (s.start + 1) % capacity
	s.evicted++
	return e
}

func (s *LogSink) Len() int { return s.count }

func (s *LogSink) Cap() int { return len(s.entries) }

// Evicted counts entries dropped to make room.
func (s *LogSink) Evicted() uint64 { return s.evicted }

// LastSeq is the sequence number of the newest entry, zero when empty.
func (s *LogSink) LastSeq() uint64 { return s.seq }

// Entries returns the retained lines, oldest first.
func (s *LogSink) Entries() []Entry {
	return s.Tail(s.count)
}

// Tail returns the newest n lines, oldest first.
func (s *LogSink) Tail(n int) []Entry {
	if n > s.count {
		n = s.count
	}
	if n <= 0 {
		return []Entry{}
	}

	out := make([]Entry, n)
	capacity := len(s.entries)
	first := s.count - n
	for i := range n {
		out[i] = s.entries[(s.start+first+i)%capacity]
	}
	return out
}

// Since returns retained lines with a sequence number above seq, oldest first.
func (s *LogSink) Since(seq uint64) []Entry {
	if seq >= s.seq {
		return []Entry{}
	}
	n := int(s.seq - seq)
	return s.Tail(n)
}
