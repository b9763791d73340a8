package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"easel/internal/config"
	"easel/internal/job"
)

const userAgent = "Easel-Go/0.1.0"

// Service defines the notification surface used while watching the queue.
type Service interface {
	NotifyJobCompleted(ctx context.Context, j job.Job) error
	NotifyJobFailed(ctx context.Context, j job.Job) error
	NotifyWatchSummary(ctx context.Context, completed, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:    topic,
		client:      client,
		completions: cfg.Notifications.Completions,
		failures:    cfg.Notifications.Failures,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	completions bool
	failures    bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, j job.Job) error {
	if !n.completions {
		return nil
	}
	prompt := truncatePrompt(j.Prompt)
	message := fmt.Sprintf("Finished: %s (%s)", prompt, j.Model)
	if j.ImageCount > 1 {
		message = fmt.Sprintf("Finished: %s (%s, %d images)", prompt, j.Model, j.ImageCount)
	}
	data := payload{
		title:   "Easel - Job Complete",
		message: message,
		tags:    []string{"easel", "job", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, j job.Job) error {
	if !n.failures {
		return nil
	}
	reason := strings.TrimSpace(j.Error)
	if reason == "" {
		reason = "unknown error"
	}
	data := payload{
		title:    "Easel - Job Failed",
		message:  fmt.Sprintf("Failed: %s (%s)\n%s", truncatePrompt(j.Prompt), j.Model, reason),
		tags:     []string{"easel", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWatchSummary(ctx context.Context, completed, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Easel - Queue Drained"
		message = fmt.Sprintf("Queue drained: %d jobs finished in %s", completed, durationText)
	} else {
		title = "Easel - Queue Drained (with errors)"
		message = fmt.Sprintf("Queue drained: %d finished, %d failed in %s", completed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"easel", "queue", "drained"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Easel - Test",
		message:  "Notification system test",
		tags:     []string{"easel", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

// truncatePrompt keeps notification bodies readable on small screens.
func truncatePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "(no prompt)"
	}
	const maxLen = 80
	if len(prompt) <= maxLen {
		return prompt
	}
	return prompt[:maxLen-3] + "..."
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, job.Job) error { return nil }
func (noopService) NotifyJobFailed(context.Context, job.Job) error    { return nil }
func (noopService) NotifyWatchSummary(context.Context, int, int, time.Duration) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
