package httpapi

// Wire types for the CBOR-over-HTTP API. Field names follow the protocol
// the browser and CLI clients speak.

type response struct {
	Success bool   `cbor:"success"`
	Error   string `cbor:"error"`
	Kind    string `cbor:"kind,omitempty"`
}

func okResponse() response {
	return response{Success: true}
}

// wireSample is one time-series point, encoded as a two-element array
// [timestamp, value].
type wireSample struct {
	_         struct{} `cbor:",toarray"`
	Timestamp int64
	Value     float64
}

type registerRequest struct {
	Username    string `cbor:"username"`
	Password    string `cbor:"password"`
	AccessLevel string `cbor:"accesslevel"`
}

type loginRequest struct {
	Username    string `cbor:"username"`
	Password    string `cbor:"password"`
	AccessLevel string `cbor:"accesslevel"`
}

type loginResponse struct {
	response
	Token string `cbor:"token"`
}

type logoutRequest struct {
	Token string `cbor:"token"`
}

type createProjectRequest struct {
	Token       string `cbor:"token"`
	Name        string `cbor:"pname"`
	Description string `cbor:"pdescription"`
}

type createBlobRequest struct {
	Token    string `cbor:"token"`
	Project  string `cbor:"pname"`
	Blob     []byte `cbor:"blob"`
	Metadata []byte `cbor:"metadata"`
}

type createBlobResponse struct {
	response
	BlobID uint64 `cbor:"blobID"`
}

type blobToTaskRequest struct {
	Token   string `cbor:"token"`
	Project string `cbor:"pname"`
	BlobID  uint64 `cbor:"blobID"`
}

type getBlobMetadataRequest struct {
	Token   string   `cbor:"token"`
	Project string   `cbor:"pname"`
	BlobIDs []uint64 `cbor:"blobIDs"`
}

type getBlobMetadataResponse struct {
	response
	Metadata map[uint64][]byte `cbor:"metadata"`
}

type getBlobRequest struct {
	Token   string `cbor:"token"`
	Project string `cbor:"pname"`
	BlobID  uint64 `cbor:"blobID"`
}

type getBlobResponse struct {
	response
	Blob     []byte `cbor:"blob"`
	Metadata []byte `cbor:"metadata"`
}

type deleteBlobRequest struct {
	Token   string `cbor:"token"`
	Project string `cbor:"pname"`
	BlobID  uint64 `cbor:"blobID"`
}

type getTasksRequest struct {
	Token    string `cbor:"token"`
	Project  string `cbor:"pname"`
	MaxTasks int    `cbor:"maxtasks"`
}

type getTasksResponse struct {
	response
	Tasks   [][]byte `cbor:"tasks"`
	TaskIDs []uint64 `cbor:"taskIDs"`
}

// taskReport is one worker verdict inside a sendTasks request. Task IDs
// arrive as decimal-string map keys.
type taskReport struct {
	Results   [][]byte `cbor:"results"`
	Metadatas [][]byte `cbor:"metadatas"`
	Status    string   `cbor:"status"`
}

type sendTasksRequest struct {
	Token string                           `cbor:"token"`
	Tasks map[string]map[string]taskReport `cbor:"tasks"`
}

type getGraphsRequest struct {
	Project   string `cbor:"pname"`
	Precision int64  `cbor:"precision"`
	Kind      string `cbor:"kind"`
}

type getGraphsResponse struct {
	response
	Graphs      map[string][]wireSample `cbor:"graphs"`
	Description string                  `cbor:"description"`
}

type updateCustomGraphsRequest struct {
	Token        string                  `cbor:"token"`
	Project      string                  `cbor:"pname"`
	CustomGraphs map[string][]wireSample `cbor:"customGraphs"`
}

type getProjectsListResponse struct {
	response
	Projects map[string]string `cbor:"projects"`
}
