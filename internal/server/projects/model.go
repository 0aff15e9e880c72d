package projects

import "time"

// Blob is an opaque payload plus metadata record owned by a project.
// IsTask marks it eligible for the backlog; Finished is set once an "ok"
// result has been accepted for it.
type Blob struct {
	ID       uint64
	Payload  []byte
	Metadata []byte
	IsTask   bool
	Finished bool
}

// Project is a customer-owned namespace of blobs. Blob IDs are monotonic
// per project. The backlog holds the IDs of tasks currently eligible for
// assignment, in insertion order.
type Project struct {
	Name        string
	Description string
	CreatedAt   time.Time

	nextBlobID uint64
	blobs      map[uint64]*Blob
	backlog    []uint64
}
