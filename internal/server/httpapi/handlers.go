package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/taskhive/taskhive/internal/common"
	"github.com/taskhive/taskhive/internal/server/auth"
	"github.com/taskhive/taskhive/internal/server/dispatch"
	"github.com/taskhive/taskhive/internal/server/metrics"
	"github.com/taskhive/taskhive/internal/server/users"
)

// resolveSession validates the token from a request. On failure the
// error response has already been written and the caller must return.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request, token string) (*auth.Session, bool) {
	sess, err := s.auth.ValidateSession(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

// requireCustomer gates project-owner operations.
func (s *Server) requireCustomer(w http.ResponseWriter, sess *auth.Session) bool {
	if sess.AccessLevel != users.AccessCustomer {
		writeError(w, common.ErrWrongAccessLevel)
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.auth.Register(r.Context(), req.Username, req.Password, users.AccessLevel(req.AccessLevel)); err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, okResponse())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	token, err := s.auth.Login(r.Context(), req.Username, req.Password, users.AccessLevel(req.AccessLevel))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, loginResponse{response: okResponse(), Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.auth.Logout(r.Context(), req.Token); err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, okResponse())
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.resolveSession(w, r, req.Token)
	if !ok {
		return
	}
	if !s.requireCustomer(w, sess) {
		return
	}
	if err := s.projects.CreateProject(r.Context(), req.Name, req.Description); err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, okResponse())
}

func (s *Server) handleCreateBlob(w http.ResponseWriter, r *http.Request) {
	var req createBlobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.resolveSession(w, r, req.Token)
	if !ok {
		return
	}
	if !s.requireCustomer(w, sess) {
		return
	}
	id, err := s.projects.CreateBlob(r.Context(), req.Project, req.Blob, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, createBlobResponse{response: okResponse(), BlobID: id})
}

func (s *Server) handleBlobToTask(w http.ResponseWriter, r *http.Request) {
	var req blobToTaskRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.resolveSession(w, r, req.Token)
	if !ok {
		return
	}
	if !s.requireCustomer(w, sess) {
		return
	}
	if err := s.projects.BlobToTask(r.Context(), req.Project, req.BlobID); err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, okResponse())
}

func (s *Server) handleGetBlobMetadata(w http.ResponseWriter, r *http.Request) {
	var req getBlobMetadataRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.resolveSession(w, r, req.Token); !ok {
		return
	}
	meta, err := s.projects.GetBlobMetadata(r.Context(), req.Project, req.BlobIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, getBlobMetadataResponse{response: okResponse(), Metadata: meta})
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	var req getBlobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.resolveSession(w, r, req.Token); !ok {
		return
	}
	blob, err := s.projects.GetBlob(r.Context(), req.Project, req.BlobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, getBlobResponse{response: okResponse(), Blob: blob.Payload, Metadata: blob.Metadata})
}

func (s *Server) handleDeleteBlob(w http.ResponseWriter, r *http.Request) {
	var req deleteBlobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.resolveSession(w, r, req.Token)
	if !ok {
		return
	}
	if !s.requireCustomer(w, sess) {
		return
	}
	if err := s.projects.DeleteBlob(r.Context(), req.Project, req.BlobID); err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, okResponse())
}

func (s *Server) handleGetTasks(w http.ResponseWriter, r *http.Request) {
	var req getTasksRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.resolveSession(w, r, req.Token)
	if !ok {
		return
	}
	tasks, err := s.dispatch.GetTasks(r.Context(), req.Project, sess.Username, req.MaxTasks)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := getTasksResponse{response: okResponse(), Tasks: make([][]byte, 0, len(tasks)), TaskIDs: make([]uint64, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, t.Payload)
		resp.TaskIDs = append(resp.TaskIDs, t.ID)
	}
	writeCBOR(w, resp)
}

func (s *Server) handleSendTasks(w http.ResponseWriter, r *http.Request) {
	var req sendTasksRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.resolveSession(w, r, req.Token)
	if !ok {
		return
	}
	for project, reports := range req.Tasks {
		for key, report := range reports {
			taskID, err := strconv.ParseUint(key, 10, 64)
			if err != nil {
				writeError(w, fmt.Errorf("%w: bad task id %q", common.ErrValidation, key))
				return
			}
			err = s.dispatch.SendTask(r.Context(), project, taskID,
				report.Results, report.Metadatas, sess.Username, dispatch.Status(report.Status))
			if err != nil {
				writeError(w, err)
				return
			}
		}
	}
	writeCBOR(w, okResponse())
}

func (s *Server) handleGetGraphs(w http.ResponseWriter, r *http.Request) {
	var req getGraphsRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = metrics.KindAll
	}
	graphs, description, err := s.metrics.GetGraphs(req.Project, req.Precision, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := getGraphsResponse{response: okResponse(), Graphs: make(map[string][]wireSample, len(graphs)), Description: description}
	for name, series := range graphs {
		resp.Graphs[name] = seriesToWire(series)
	}
	writeCBOR(w, resp)
}

func (s *Server) handleUpdateCustomGraphs(w http.ResponseWriter, r *http.Request) {
	var req updateCustomGraphsRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.resolveSession(w, r, req.Token)
	if !ok {
		return
	}
	if !s.requireCustomer(w, sess) {
		return
	}
	series := make(map[string]metrics.Series, len(req.CustomGraphs))
	for name, samples := range req.CustomGraphs {
		series[name] = wireToSeries(samples)
	}
	if err := s.metrics.UpdateCustomGraphs(req.Project, series); err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, okResponse())
}

func (s *Server) handleGetProjectsList(w http.ResponseWriter, r *http.Request) {
	list, err := s.projects.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCBOR(w, getProjectsListResponse{response: okResponse(), Projects: list})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeCBOR(w, okResponse())
}

func seriesToWire(s metrics.Series) []wireSample {
	out := make([]wireSample, 0, len(s))
	for _, p := range s {
		out = append(out, wireSample{Timestamp: p.Timestamp, Value: p.Value})
	}
	return out
}

func wireToSeries(samples []wireSample) metrics.Series {
	out := make(metrics.Series, 0, len(samples))
	for _, p := range samples {
		out = append(out, metrics.Sample{Timestamp: p.Timestamp, Value: p.Value})
	}
	return out
}
