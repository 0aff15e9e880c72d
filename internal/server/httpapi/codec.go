package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fxamacker/cbor/v2"

	"github.com/taskhive/taskhive/internal/common"
)

const contentTypeCBOR = "application/cbor"

// maxRequestBody bounds a single request body. Blobs larger than this
// have to be split by the uploader anyway.
const maxRequestBody = 64 << 20

func decodeRequest(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("%w: reading body: %w", common.ErrValidation, err)
	}
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decoding request: %w", common.ErrValidation, err)
	}
	return nil
}

func writeCBOR(w http.ResponseWriter, v any) {
	data, err := cbor.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeCBOR)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// errorKind maps a service error to the machine-readable kind field
// clients branch on.
func errorKind(err error) string {
	switch {
	case errors.Is(err, common.ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, common.ErrAuth):
		return "auth"
	case errors.Is(err, common.ErrWrongAccessLevel):
		return "wrong_access_level"
	case errors.Is(err, common.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	case errors.Is(err, common.ErrValidation):
		return "validation"
	case errors.Is(err, common.ErrState):
		return "state"
	default:
		return "internal"
	}
}

// writeError reports a failed operation. The transport level is still a
// 200: success and error travel inside the envelope.
func writeError(w http.ResponseWriter, err error) {
	writeCBOR(w, response{Success: false, Error: err.Error(), Kind: errorKind(err)})
}
