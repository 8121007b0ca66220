package genvalue

import (
	"fmt"

	"github.com/google/uuid"
)

// maxUUIDAttempts bounds how many times we'll mint a candidate v4 UUID
// before giving up when the shared used-UUID set keeps colliding.
const maxUUIDAttempts = 1_000_000

// UUIDSet is the run-scoped set of UUID values already produced anywhere
// in the run, shared by every column's UUID generation so that invariant
// 6 of the data model (global UUID uniqueness) holds across tables.
type UUIDSet struct {
	seen map[string]bool
}

// NewUUIDSet returns an empty set.
func NewUUIDSet() *UUIDSet {
	return &UUIDSet{seen: make(map[string]bool)}
}

// Contains reports whether id has already been produced this run.
func (s *UUIDSet) Contains(id string) bool {
	return s.seen[id]
}

// Add records id as produced.
func (s *UUIDSet) Add(id string) {
	s.seen[id] = true
}

// mintUnique mints a fresh v4 UUID not already present in used, retrying up
// to maxUUIDAttempts times. Collisions this frequent are not expected in
// practice; this is a hard fatal error, not a retry budget like the row
// generation attempt caps.
func mintUnique(used *UUIDSet) (string, error) {
	for i := 0; i < maxUUIDAttempts; i++ {
		candidate := uuid.NewString()
		if !used.Contains(candidate) {
			used.Add(candidate)
			return candidate, nil
		}
	}
	return "", fmt.Errorf("genvalue: exhausted %d attempts minting a unique UUID", maxUUIDAttempts)
}

func looksLikeUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
