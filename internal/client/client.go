// Package client is a Go client for the taskhive HTTP API. Every
// operation is one POST with CBOR bodies; envelope failures come back
// as *APIError.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// APIError is a failure reported by the server inside a response
// envelope.
type APIError struct {
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is an *APIError with the given kind.
func IsKind(err error, kind string) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Kind == kind
}

type Client struct {
	base string
	http *http.Client
}

func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope mirrors the server's common response fields. Operation
// responses embed it.
type envelope struct {
	Success bool   `cbor:"success"`
	Error   string `cbor:"error"`
	Kind    string `cbor:"kind"`
}

func (e *envelope) env() *envelope { return e }

type responder interface {
	env() *envelope
}

func (c *Client) post(ctx context.Context, route string, request any, response responder) error {
	body, err := cbor.Marshal(request)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", route, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+route, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/cbor")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: unexpected status %s", route, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", route, err)
	}
	if err := cbor.Unmarshal(data, response); err != nil {
		return fmt.Errorf("decoding %s response: %w", route, err)
	}

	if e := response.env(); !e.Success {
		return &APIError{Kind: e.Kind, Message: e.Error}
	}
	return nil
}
