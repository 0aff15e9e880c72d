package projects

import (
	"context"
	"sync"
	"time"

	"github.com/taskhive/taskhive/internal/common"
)

// MemoryRepository keeps all projects in a process-local map. A single
// mutex guards the registry; every method is one atomic section, so no
// partially-applied state is ever visible to other callers.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{projects: make(map[string]*Project)}
}

func (r *MemoryRepository) CreateProject(ctx context.Context, name, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[name]; ok {
		return common.ErrAlreadyExists
	}

	r.projects[name] = &Project{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
		blobs:       make(map[uint64]*Blob),
	}

	return nil
}

func (r *MemoryRepository) ListProjects(ctx context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make(map[string]string, len(r.projects))
	for name, p := range r.projects {
		list[name] = p.Description
	}

	return list, nil
}

func (r *MemoryRepository) CreateBlob(ctx context.Context, project string, payload, metadata []byte) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[project]
	if !ok {
		return 0, common.ErrNotFound
	}

	id := p.nextBlobID
	p.nextBlobID++

	p.blobs[id] = &Blob{ID: id, Payload: payload, Metadata: metadata}

	return id, nil
}

func (r *MemoryRepository) GetBlob(ctx context.Context, project string, id uint64) (*Blob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, err := r.getBlobLocked(project, id)
	if err != nil {
		return nil, err
	}

	// copy so flag mutations stay behind the lock
	cp := *b
	return &cp, nil
}

func (r *MemoryRepository) DeleteBlob(ctx context.Context, project string, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[project]
	if !ok {
		return common.ErrNotFound
	}

	b, ok := p.blobs[id]
	if !ok {
		return common.ErrNotFound
	}

	if b.IsTask {
		p.removeFromBacklog(id)
	}
	delete(p.blobs, id)

	return nil
}

func (r *MemoryRepository) GetBlobMetadata(ctx context.Context, project string, ids []uint64) (map[uint64][]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[project]
	if !ok {
		return nil, common.ErrNotFound
	}

	metas := make(map[uint64][]byte)

	if len(ids) == 0 {
		for id, b := range p.blobs {
			metas[id] = b.Metadata
		}
		return metas, nil
	}

	for _, id := range ids {
		if b, ok := p.blobs[id]; ok {
			metas[id] = b.Metadata
		}
	}

	return metas, nil
}

func (r *MemoryRepository) MarkTask(ctx context.Context, project string, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.getBlobLocked(project, id)
	if err != nil {
		return err
	}

	if b.IsTask {
		return nil
	}

	b.IsTask = true
	r.projects[project].backlog = append(r.projects[project].backlog, id)

	return nil
}

func (r *MemoryRepository) Backlog(ctx context.Context, project string) ([]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[project]
	if !ok {
		return nil, common.ErrNotFound
	}

	backlog := make([]uint64, len(p.backlog))
	copy(backlog, p.backlog)

	return backlog, nil
}

func (r *MemoryRepository) CompleteTask(ctx context.Context, project string, id uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.getBlobLocked(project, id)
	if err != nil {
		return false, err
	}

	p := r.projects[project]
	removed := p.removeFromBacklog(id)
	if removed {
		b.Finished = true
	}

	return removed, nil
}

func (r *MemoryRepository) getBlobLocked(project string, id uint64) (*Blob, error) {
	p, ok := r.projects[project]
	if !ok {
		return nil, common.ErrNotFound
	}

	b, ok := p.blobs[id]
	if !ok {
		return nil, common.ErrNotFound
	}

	return b, nil
}

func (p *Project) removeFromBacklog(id uint64) bool {
	for i, bID := range p.backlog {
		if bID == id {
			p.backlog = append(p.backlog[:i], p.backlog[i+1:]...)
			return true
		}
	}
	return false
}
