package indexnow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
)

// DefaultEndpoint is the shared IndexNow endpoint that forwards to all participating engines.
const DefaultEndpoint = "https://api.indexnow.org/IndexNow"

// ClientImpl posts submission payloads to an IndexNow endpoint.
type ClientImpl struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a client for endpoint. An empty endpoint selects DefaultEndpoint.
func NewClient(endpoint string, httpClient *http.Client) *ClientImpl {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ClientImpl{endpoint: endpoint, client: httpClient}
}

// Submit sends the payload. 200 and 202 count as accepted; any other status
// is returned as *repository.RemoteError carrying the response body.
func (c *ClientImpl) Submit(ctx context.Context, payload entity.SubmitPayload) error {
	if payload.KeyLocation == "" {
		payload.KeyLocation = entity.SiteSettings{APIKey: payload.Key, Host: payload.Host}.ResolvedKeyLocation()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &repository.RemoteError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(text)}
}
