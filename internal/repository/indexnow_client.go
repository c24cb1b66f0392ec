package repository

import (
	"context"
	"fmt"

	"github.com/user/indexnow-service/internal/entity"
)

// RemoteError is returned when a remote endpoint answered with a non-success status.
type RemoteError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote returned status %d: %s", e.StatusCode, e.Body)
}

// IndexNowClient delivers a submission payload to an IndexNow endpoint.
type IndexNowClient interface {
	// Submit returns nil when the endpoint accepted the payload, a *RemoteError
	// when it rejected it, and any other error when it could not be reached.
	Submit(ctx context.Context, payload entity.SubmitPayload) error
}
