// Package projects owns the project/blob data model: creation, lookup,
// promotion of blobs to backlog tasks, and deletion.
package projects

import (
	"context"
	"fmt"
)

// Registrar seeds the metrics bundle for a newly created project.
type Registrar interface {
	Register(project, description string)
}

type Service struct {
	repo    Repository
	metrics Registrar
}

func NewService(repo Repository, metrics Registrar) *Service {
	return &Service{repo: repo, metrics: metrics}
}

// CreateProject reserves the globally unique name and seeds the standard
// metrics series with a single zero sample each.
func (s *Service) CreateProject(ctx context.Context, name, description string) error {
	if err := s.repo.CreateProject(ctx, name, description); err != nil {
		return err
	}

	s.metrics.Register(name, description)
	return nil
}

func (s *Service) ListProjects(ctx context.Context) (map[string]string, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) CreateBlob(ctx context.Context, project string, payload, metadata []byte) (uint64, error) {
	return s.repo.CreateBlob(ctx, project, payload, metadata)
}

// BlobToTask validates the blob payload against the task schema and, on
// success, flags it as a task and enters it into the project backlog.
// Malformed payloads are rejected; callers can rely on "enqueued" and
// "rejected" being distinguishable.
func (s *Service) BlobToTask(ctx context.Context, project string, id uint64) error {
	blob, err := s.repo.GetBlob(ctx, project, id)
	if err != nil {
		return err
	}

	if err := validateTaskPayload(blob.Payload); err != nil {
		return fmt.Errorf("blob %d: %w", id, err)
	}

	return s.repo.MarkTask(ctx, project, id)
}

// GetBlobMetadata returns blobID→metadata restricted to ids; an empty ids
// list means all blobs in the project.
func (s *Service) GetBlobMetadata(ctx context.Context, project string, ids []uint64) (map[uint64][]byte, error) {
	return s.repo.GetBlobMetadata(ctx, project, ids)
}

func (s *Service) GetBlob(ctx context.Context, project string, id uint64) (*Blob, error) {
	return s.repo.GetBlob(ctx, project, id)
}

func (s *Service) DeleteBlob(ctx context.Context, project string, id uint64) error {
	return s.repo.DeleteBlob(ctx, project, id)
}
