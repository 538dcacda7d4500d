package todo

import "github.com/google/uuid"

// NewID returns a fresh task id. Ids are time-based UUIDs; a random UUID
// is used when the clock sequence cannot be read.
func NewID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
