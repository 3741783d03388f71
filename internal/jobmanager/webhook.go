package jobmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// userWebhookPayload is the single construction path for the outbound
// webhook to the caller (§6.3, §9(a)): derived solely from JobState, with
// every output-url field always present even when empty, so there is never
// a second, divergent payload builder for a different code path.
type userWebhookPayload struct {
	ID               string         `json:"id"`
	CreatedAt        string         `json:"created_at"`
	Status           Status         `json:"status"`
	Model            string         `json:"model"`
	Input            []JobInput     `json:"input"`
	WebhookURL       string         `json:"webhook_url"`
	Options          map[string]any `json:"options"`
	Stream           bool           `json:"stream"`
	OutputURL        string         `json:"output_url"`
	LocalURL         string         `json:"local_url"`
	OutputWasabiURL  string         `json:"output_wasabi_url"`
	Error            string         `json:"error,omitempty"`
}

func buildUserWebhookPayload(job JobState) userWebhookPayload {
	return userWebhookPayload{
		ID:              job.ID,
		CreatedAt:       job.CreatedAt.UTC().Format(time.RFC3339),
		Status:          job.Status,
		Model:           job.Model,
		Input:           job.Input,
		WebhookURL:      job.WebhookURL,
		Options:         job.Options,
		Stream:          false,
		OutputURL:       job.OutputURLs.AWS,
		LocalURL:        job.OutputURLs.Local,
		OutputWasabiURL: job.OutputURLs.Wasabi,
		Error:           job.Error,
	}
}

// postUserWebhook delivers a job's current state to its caller-supplied
// URL. Best-effort: a non-200 response or transport error is logged at
// ERROR and never retried, per §7's propagation policy.
func (m *Manager) postUserWebhook(ctx context.Context, job JobState) {
	if job.WebhookURL == "" {
		return
	}

	payload := buildUserWebhookPayload(job)
	body, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("failed to marshal user webhook payload", zap.Error(err), zap.String("job_id", job.ID))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.WebhookURL, bytes.NewReader(body))
	if err != nil {
		m.logger.Error("failed to build user webhook request", zap.Error(err), zap.String("job_id", job.ID))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Error("user webhook delivery failed", zap.Error(err), zap.String("job_id", job.ID), zap.String("url", job.WebhookURL))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.logger.Error("user webhook returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.String("job_id", job.ID),
			zap.String("url", job.WebhookURL),
		)
	}
}
