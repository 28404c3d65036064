package utils

// KeySet tracks identifiers seen during one run. The first Add of a key wins.
type KeySet struct {
	seen map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *KeySet) Add(key string) bool {
	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains returns true if the key has already been added.
func (s *KeySet) Contains(key string) bool {
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique keys tracked.
func (s *KeySet) Size() int {
	return len(s.seen)
}

// DedupBy returns the items whose key has not been seen earlier in the
// sequence, preserving order. Items with an empty key are always kept.
func DedupBy[T any](items []T, key func(T) string) []T {
	seen := NewKeySet()
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k != "" && !seen.Add(k) {
			continue
		}
		out = append(out, item)
	}
	return out
}
