package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
	"github.com/user/indexnow-service/pkg/metrics"
)

// BatchSize is the largest number of URLs IndexNow accepts in one request.
const BatchSize = 10000

// Submitter sends URL lists to IndexNow in sequential chunks.
type Submitter struct {
	client repository.IndexNowClient
	sites  *SiteManager
	now    func() time.Time
}

// NewSubmitter creates a Submitter. sites may be nil when only Submit is used.
func NewSubmitter(client repository.IndexNowClient, sites *SiteManager) *Submitter {
	metrics.Init()
	return &Submitter{
		client: client,
		sites:  sites,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Submit sends urls in chunks of BatchSize, one request at a time, and stops
// at the first failing chunk. SubmittedCount counts the URLs of the chunks
// acknowledged before that point.
func (s *Submitter) Submit(ctx context.Context, urls []string, settings entity.SiteSettings) entity.SubmitResult {
	switch {
	case settings.APIKey == "":
		return entity.SubmitResult{Message: "API key is required"}
	case settings.Host == "":
		return entity.SubmitResult{Message: "Host is required"}
	case len(urls) == 0:
		return entity.SubmitResult{Message: "No URLs to submit"}
	}

	keyLocation := settings.ResolvedKeyLocation()
	submitted := 0
	for start := 0; start < len(urls); start += BatchSize {
		end := min(start+BatchSize, len(urls))
		chunk := urls[start:end]

		if err := ctx.Err(); err != nil {
			metrics.SubmissionChunksTotal.WithLabelValues("network_error").Inc()
			return entity.SubmitResult{Message: fmt.Sprintf("Network error: %s", err), SubmittedCount: submitted}
		}

		began := time.Now()
		err := s.client.Submit(ctx, entity.SubmitPayload{
			Host:        settings.Host,
			Key:         settings.APIKey,
			KeyLocation: keyLocation,
			URLList:     chunk,
		})
		metrics.SubmissionDuration.Observe(time.Since(began).Seconds())

		if err != nil {
			var remoteErr *repository.RemoteError
			if errors.As(err, &remoteErr) {
				metrics.SubmissionChunksTotal.WithLabelValues("rejected").Inc()
				slog.Error("IndexNow rejected chunk", "host", settings.Host, "status", remoteErr.StatusCode, "chunk_start", start, "chunk_size", len(chunk))
				return entity.SubmitResult{
					Message:        fmt.Sprintf("IndexNow API error: %d - %s", remoteErr.StatusCode, remoteErr.Body),
					SubmittedCount: submitted,
				}
			}
			metrics.SubmissionChunksTotal.WithLabelValues("network_error").Inc()
			slog.Error("Failed to reach IndexNow", "host", settings.Host, "chunk_start", start, "error", err)
			return entity.SubmitResult{Message: fmt.Sprintf("Network error: %s", err), SubmittedCount: submitted}
		}

		metrics.SubmissionChunksTotal.WithLabelValues("accepted").Inc()
		metrics.SubmittedURLsTotal.Add(float64(len(chunk)))
		submitted += len(chunk)
	}

	slog.Info("Submitted URLs to IndexNow", "host", settings.Host, "count", submitted)
	return entity.SubmitResult{
		Success:        true,
		Message:        fmt.Sprintf("Successfully submitted %d URLs", submitted),
		SubmittedCount: submitted,
	}
}

// SubmitPending submits the site's pending and changed entries, sorted by
// URL and optionally restricted to only, then marks the acknowledged ones
// as submitted. Remote failures are reported in the result, not as errors.
func (s *Submitter) SubmitPending(ctx context.Context, siteID string, only []string) (entity.SubmitResult, error) {
	if s.sites == nil {
		return entity.SubmitResult{}, fmt.Errorf("%w: no site store configured", ErrInvalidInput)
	}
	site, err := s.sites.GetSite(ctx, siteID)
	if err != nil {
		return entity.SubmitResult{}, err
	}

	var filter map[string]struct{}
	if len(only) > 0 {
		filter = make(map[string]struct{}, len(only))
		for _, u := range only {
			filter[u] = struct{}{}
		}
	}

	urls := make([]string, 0, len(site.URLs))
	for u, entry := range site.URLs {
		if !entry.Status.NeedsSubmission() {
			continue
		}
		if filter != nil {
			if _, ok := filter[u]; !ok {
				continue
			}
		}
		urls = append(urls, u)
	}
	sort.Strings(urls)

	result := s.Submit(ctx, urls, site.Settings)
	if result.SubmittedCount > 0 {
		// Acknowledged chunks are recorded even if ctx was cancelled mid-batch.
		if err := s.sites.MarkSubmitted(context.WithoutCancel(ctx), site.ID, urls[:result.SubmittedCount], s.now()); err != nil {
			return result, err
		}
	}
	return result, nil
}
