package dispatch

import "sync"

// issuedTracker is the per-(worker, project) bookkeeping of task IDs
// currently held by a worker. Entries are created on a worker's first
// getTasks call for a project and never deleted: a project key with an
// empty set still means "this worker has touched this project".
type issuedTracker struct {
	mu     sync.Mutex
	byUser map[string]map[string]map[uint64]struct{}
}

func newIssuedTracker() *issuedTracker {
	return &issuedTracker{byUser: make(map[string]map[string]map[uint64]struct{})}
}

// touch ensures bookkeeping exists for (user, project) and reports whether
// this was the user's first contact with the project.
func (t *issuedTracker) touch(user, project string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	projects, ok := t.byUser[user]
	if !ok {
		projects = make(map[string]map[uint64]struct{})
		t.byUser[user] = projects
	}

	if _, ok := projects[project]; ok {
		return false
	}

	projects[project] = make(map[uint64]struct{})
	return true
}

// snapshot returns a copy of the issued set for (user, project).
func (t *issuedTracker) snapshot(user, project string) map[uint64]struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.byUser[user][project]
	out := make(map[uint64]struct{}, len(set))
	for id := range set {
		out[id] = struct{}{}
	}
	return out
}

func (t *issuedTracker) add(user, project string, ids []uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.byUser[user][project]
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

func (t *issuedTracker) contains(user, project string, id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.byUser[user][project][id]
	return ok
}

func (t *issuedTracker) remove(user, project string, id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.byUser[user][project], id)
}

// projectsOf lists every project the user has bookkeeping for, including
// ones whose issued set is currently empty.
func (t *issuedTracker) projectsOf(user string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	projects := make([]string, 0, len(t.byUser[user]))
	for name := range t.byUser[user] {
		projects = append(projects, name)
	}
	return projects
}
