package client

import (
	"context"
	"strconv"
)

// Task is one issued unit of work.
type Task struct {
	ID      uint64
	Payload []byte
}

// Sample is one time-series point, encoded on the wire as
// [timestamp, value].
type Sample struct {
	_         struct{} `cbor:",toarray"`
	Timestamp int64
	Value     float64
}

// Graphs is the result of a getGraphs call.
type Graphs struct {
	Series      map[string][]Sample
	Description string
}

// TaskReport is a worker's verdict on one issued task.
type TaskReport struct {
	Results   [][]byte `cbor:"results"`
	Metadatas [][]byte `cbor:"metadatas"`
	Status    string   `cbor:"status"`
}

func (c *Client) Ping(ctx context.Context) error {
	var resp envelope
	return c.post(ctx, "/ping", map[string]any{}, &resp)
}

func (c *Client) Register(ctx context.Context, username, password, accessLevel string) error {
	req := struct {
		Username    string `cbor:"username"`
		Password    string `cbor:"password"`
		AccessLevel string `cbor:"accesslevel"`
	}{username, password, accessLevel}
	var resp envelope
	return c.post(ctx, "/register", req, &resp)
}

func (c *Client) Login(ctx context.Context, username, password, accessLevel string) (string, error) {
	req := struct {
		Username    string `cbor:"username"`
		Password    string `cbor:"password"`
		AccessLevel string `cbor:"accesslevel"`
	}{username, password, accessLevel}
	var resp struct {
		envelope
		Token string `cbor:"token"`
	}
	if err := c.post(ctx, "/login", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	req := struct {
		Token string `cbor:"token"`
	}{token}
	var resp envelope
	return c.post(ctx, "/logout", req, &resp)
}

func (c *Client) CreateProject(ctx context.Context, token, name, description string) error {
	req := struct {
		Token       string `cbor:"token"`
		Name        string `cbor:"pname"`
		Description string `cbor:"pdescription"`
	}{token, name, description}
	var resp envelope
	return c.post(ctx, "/createNewProject", req, &resp)
}

func (c *Client) CreateBlob(ctx context.Context, token, project string, blob, metadata []byte) (uint64, error) {
	req := struct {
		Token    string `cbor:"token"`
		Project  string `cbor:"pname"`
		Blob     []byte `cbor:"blob"`
		Metadata []byte `cbor:"metadata"`
	}{token, project, blob, metadata}
	var resp struct {
		envelope
		BlobID uint64 `cbor:"blobID"`
	}
	if err := c.post(ctx, "/createNewBlob", req, &resp); err != nil {
		return 0, err
	}
	return resp.BlobID, nil
}

func (c *Client) BlobToTask(ctx context.Context, token, project string, blobID uint64) error {
	req := struct {
		Token   string `cbor:"token"`
		Project string `cbor:"pname"`
		BlobID  uint64 `cbor:"blobID"`
	}{token, project, blobID}
	var resp envelope
	return c.post(ctx, "/blobToTask", req, &resp)
}

// GetBlobMetadata fetches metadata for the given blob IDs. A nil or
// empty slice means all blobs of the project.
func (c *Client) GetBlobMetadata(ctx context.Context, token, project string, blobIDs []uint64) (map[uint64][]byte, error) {
	req := struct {
		Token   string   `cbor:"token"`
		Project string   `cbor:"pname"`
		BlobIDs []uint64 `cbor:"blobIDs"`
	}{token, project, blobIDs}
	var resp struct {
		envelope
		Metadata map[uint64][]byte `cbor:"metadata"`
	}
	if err := c.post(ctx, "/getBlobMetadata", req, &resp); err != nil {
		return nil, err
	}
	return resp.Metadata, nil
}

func (c *Client) GetBlob(ctx context.Context, token, project string, blobID uint64) (blob, metadata []byte, err error) {
	req := struct {
		Token   string `cbor:"token"`
		Project string `cbor:"pname"`
		BlobID  uint64 `cbor:"blobID"`
	}{token, project, blobID}
	var resp struct {
		envelope
		Blob     []byte `cbor:"blob"`
		Metadata []byte `cbor:"metadata"`
	}
	if err := c.post(ctx, "/getBlob", req, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Blob, resp.Metadata, nil
}

func (c *Client) DeleteBlob(ctx context.Context, token, project string, blobID uint64) error {
	req := struct {
		Token   string `cbor:"token"`
		Project string `cbor:"pname"`
		BlobID  uint64 `cbor:"blobID"`
	}{token, project, blobID}
	var resp envelope
	return c.post(ctx, "/deleteBlob", req, &resp)
}

func (c *Client) GetTasks(ctx context.Context, token, project string, maxTasks int) ([]Task, error) {
	req := struct {
		Token    string `cbor:"token"`
		Project  string `cbor:"pname"`
		MaxTasks int    `cbor:"maxtasks"`
	}{token, project, maxTasks}
	var resp struct {
		envelope
		Tasks   [][]byte `cbor:"tasks"`
		TaskIDs []uint64 `cbor:"taskIDs"`
	}
	if err := c.post(ctx, "/getTasks", req, &resp); err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(resp.TaskIDs))
	for i, id := range resp.TaskIDs {
		tasks = append(tasks, Task{ID: id, Payload: resp.Tasks[i]})
	}
	return tasks, nil
}

// SendTasks reports verdicts for issued tasks, keyed by project and
// task ID.
func (c *Client) SendTasks(ctx context.Context, token string, reports map[string]map[uint64]TaskReport) error {
	wire := make(map[string]map[string]TaskReport, len(reports))
	for project, byID := range reports {
		m := make(map[string]TaskReport, len(byID))
		for id, report := range byID {
			m[strconv.FormatUint(id, 10)] = report
		}
		wire[project] = m
	}
	req := struct {
		Token string                           `cbor:"token"`
		Tasks map[string]map[string]TaskReport `cbor:"tasks"`
	}{token, wire}
	var resp envelope
	return c.post(ctx, "/sendTasks", req, &resp)
}

// SendTaskResult is the single-task convenience form of SendTasks.
func (c *Client) SendTaskResult(ctx context.Context, token, project string, taskID uint64, results, metadatas [][]byte, status string) error {
	return c.SendTasks(ctx, token, map[string]map[uint64]TaskReport{
		project: {taskID: {Results: results, Metadatas: metadatas, Status: status}},
	})
}

func (c *Client) GetGraphs(ctx context.Context, project string, precision int64, kind string) (*Graphs, error) {
	req := struct {
		Project   string `cbor:"pname"`
		Precision int64  `cbor:"precision"`
		Kind      string `cbor:"kind"`
	}{project, precision, kind}
	var resp struct {
		envelope
		Graphs      map[string][]Sample `cbor:"graphs"`
		Description string              `cbor:"description"`
	}
	if err := c.post(ctx, "/getGraphs", req, &resp); err != nil {
		return nil, err
	}
	return &Graphs{Series: resp.Graphs, Description: resp.Description}, nil
}

func (c *Client) UpdateCustomGraphs(ctx context.Context, token, project string, series map[string][]Sample) error {
	req := struct {
		Token        string              `cbor:"token"`
		Project      string              `cbor:"pname"`
		CustomGraphs map[string][]Sample `cbor:"customGraphs"`
	}{token, project, series}
	var resp envelope
	return c.post(ctx, "/updateCustomGraphs", req, &resp)
}

func (c *Client) GetProjectsList(ctx context.Context) (map[string]string, error) {
	var resp struct {
		envelope
		Projects map[string]string `cbor:"projects"`
	}
	if err := c.post(ctx, "/getProjectsList", map[string]any{}, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}
