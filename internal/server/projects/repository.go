package projects

import (
	"context"
)

type Repository interface {
	CreateProject(ctx context.Context, name, description string) error
	ListProjects(ctx context.Context) (map[string]string, error)

	CreateBlob(ctx context.Context, project string, payload, metadata []byte) (uint64, error)
	GetBlob(ctx context.Context, project string, id uint64) (*Blob, error)
	DeleteBlob(ctx context.Context, project string, id uint64) error
	GetBlobMetadata(ctx context.Context, project string, ids []uint64) (map[uint64][]byte, error)

	// MarkTask flags the blob as a task and appends it to the backlog.
	// Re-marking an existing task is a no-op.
	MarkTask(ctx context.Context, project string, id uint64) error

	// Backlog returns the task IDs currently eligible for assignment,
	// in insertion order.
	Backlog(ctx context.Context, project string) ([]uint64, error)

	// CompleteTask removes the task from the backlog and marks the blob
	// finished. It reports whether the task was still pending; a second
	// completion is a no-op, not an error.
	CompleteTask(ctx context.Context, project string, id uint64) (bool, error)
}
