package tasks

// seenLines remembers the most recent server log lines, oldest evicted first.
type seenLines struct {
	order []string
	count map[string]int
	limit int
}

func newSeenLines(limit int) *seenLines {
	if limit <= 0 {
		limit = DefaultLogCapacity
	}
	return &seenLines{count: make(map[string]int), limit: limit}
}

func (s *seenLines) add(line string) {
	s.order = append(s.order, line)
	s.count[line]++
	if len(s.order) <= s.limit {
		return
	}

	oldest := s.order[0]
	s.order = s.order[1:]
	if s.count[oldest]--; s.count[oldest] == 0 {
		delete(s.count, oldest)
	}
}

func (s *seenLines) has(line string) bool { return s.count[line] > 0 }
