// Package ids mints and checks entity identifiers. Events and registrations
// get ULIDs, so ordering by id is ordering by creation; user accounts get
// random UUIDs.
package ids

import (
	"crypto/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// monotonic keeps ids minted within one millisecond increasing. It is not
// safe for concurrent use on its own.
var (
	mu        sync.Mutex
	monotonic = ulid.Monotonic(rand.Reader, 0)
)

func NewULID() (string, error) {
	mu.Lock()
	id, err := ulid.New(ulid.Now(), monotonic)
	mu.Unlock()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func NewUUID() string {
	return uuid.NewString()
}
