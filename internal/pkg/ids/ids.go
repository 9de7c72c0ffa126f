// Package ids generates job identifiers.
package ids

import "github.com/google/uuid"

// DefaultJobPrefix is used for job ids the caller did not supply.
const DefaultJobPrefix = "job"

// NewID returns prefix_<uuid>. The result only contains letters, digits,
// '-' and '_', so it is safe as a file name.
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// NewJobID returns a job id with DefaultJobPrefix.
func NewJobID() string {
	return NewID(DefaultJobPrefix)
}
