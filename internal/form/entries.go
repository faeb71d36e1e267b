package form

import (
	"fmt"
	"strings"

	"github.com/desertthunder/subctl/internal/shared"
)

// EntryList is an ordered list of raw text inputs. Entries are identified by position only.
type EntryList struct {
	entries []string
}

// NewEntryList seeds a list with values, in order.
func NewEntryList(values ...string) EntryList {
	return EntryList{entries: append([]string(nil), values...)}
}

// Add appends an entry and returns its index.
func (l *EntryList) Add(value string) int {
	l.entries = append(l.entries, value)
	return len(l.entries) - 1
}

// Remove deletes the entry at i. The remaining entries keep their order.
func (l *EntryList) Remove(i int) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return nil
}

// Set replaces the text of entry i.
func (l *EntryList) Set(i int, value string) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.entries[i] = value
	return nil
}

func (l *EntryList) check(i int) error {
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("%w: entry %d out of range (have %d)", shared.ErrInvalidArgument, i, len(l.entries))
	}
	return nil
}

func (l EntryList) Len() int { return len(l.entries) }

// Values returns a copy of the raw entries.
func (l EntryList) Values() []string {
	return append([]string{}, l.entries...)
}

// Clean returns the trimmed entries with empty ones dropped. Duplicates are kept.
func (l EntryList) Clean() []string {
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		if v := strings.TrimSpace(e); v != "" {
			out = append(out, v)
		}
	}
	return out
}
