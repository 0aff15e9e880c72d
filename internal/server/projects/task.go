package projects

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/taskhive/taskhive/internal/common"
)

// A task payload is a CBOR map of the form
//
//	{
//	    "program": {"id": int, "size": int},
//	    "control": bytes,
//	    "blobs":   [{"id": ..., "size": int}, ...],
//	}
//
// Pointer fields distinguish an absent key from a zero value; CBOR nulls
// decode to nil pointers and count as absent too.
type taskProgram struct {
	ID   *int64 `cbor:"id"`
	Size *int64 `cbor:"size"`
}

type taskBlobRef struct {
	ID   cbor.RawMessage `cbor:"id"`
	Size *int64          `cbor:"size"`
}

type taskPayload struct {
	Program *taskProgram    `cbor:"program"`
	Control cbor.RawMessage `cbor:"control"`
	Blobs   *[]taskBlobRef  `cbor:"blobs"`
}

const cborMajorByteString = 2

// isByteString reports whether the raw CBOR item is a byte string
// (major type 2, definite or indefinite length).
func isByteString(raw cbor.RawMessage) bool {
	return len(raw) > 0 && raw[0]>>5 == cborMajorByteString
}

// validateTaskPayload checks that the blob payload conforms to the task
// schema. A blob that fails here is rejected, never silently enqueued.
func validateTaskPayload(payload []byte) error {
	var task taskPayload

	if err := cbor.Unmarshal(payload, &task); err != nil {
		return fmt.Errorf("%w: blob is not a correctly formatted task: %v", common.ErrValidation, err)
	}

	if task.Program == nil {
		return fmt.Errorf("%w: task is missing 'program'", common.ErrValidation)
	}
	if task.Program.ID == nil {
		return fmt.Errorf("%w: task 'program.id' must be an integer", common.ErrValidation)
	}
	if task.Program.Size == nil {
		return fmt.Errorf("%w: task 'program.size' must be an integer", common.ErrValidation)
	}
	if !isByteString(task.Control) {
		return fmt.Errorf("%w: task 'control' must be a byte string", common.ErrValidation)
	}
	if task.Blobs == nil {
		return fmt.Errorf("%w: task is missing 'blobs'", common.ErrValidation)
	}

	for i, ref := range *task.Blobs {
		if len(ref.ID) == 0 {
			return fmt.Errorf("%w: task blob %d is missing 'id'", common.ErrValidation, i)
		}
		if ref.Size == nil {
			return fmt.Errorf("%w: task blob %d 'size' must be an integer", common.ErrValidation, i)
		}
	}

	return nil
}
