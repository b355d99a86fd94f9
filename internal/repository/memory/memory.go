// Package memory holds in-process implementations of the repository
// interfaces. They back the "memory" storage mode and the service tests.
package memory

import (
	"sort"
	"strings"
)

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// roomKeyed is a record set indexed by room ID used by the room-scoped repositories.
type roomKeyed[T any] struct {
	items []T
	room  func(T) string
}

func (s *roomKeyed[T]) deleteByRoom(roomID string) int64 {
	kept := s.items[:0]
	var n int64
	for _, it := range s.items {
		if s.room(it) == roomID {
			n++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return n
}

func (s *roomKeyed[T]) roomIDs() []string {
	set := map[string]struct{}{}
	for _, it := range s.items {
		set[s.room(it)] = struct{}{}
	}
	return sortedKeys(set)
}
