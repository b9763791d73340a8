package queueview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"easel/internal/api"
	"easel/internal/channel"
	"easel/internal/job"
	"easel/internal/logging"
	"easel/internal/submit"
)

// DefaultCoalesceWindow bounds how often push events can force a page
// refetch: all events arriving within one window collapse into one fetch.
const DefaultCoalesceWindow = 250 * time.Millisecond

// DefaultPageSize is the number of jobs shown per page.
const DefaultPageSize = 10

// ErrNotRetryable is returned when Retry is asked to resubmit a job that has
// not terminally failed.
var ErrNotRetryable = errors.New("only failed or cancelled jobs can be retried")

// API abstracts the backend operations the synchronizer drives.
type API interface {
	ListGenerations(ctx context.Context, page, pageSize int) (api.Page, error)
	CancelJob(ctx context.Context, id string) error
	CancelAll(ctx context.Context) (api.CancelAllResponse, error)
	DeleteGeneration(ctx context.Context, id string) error
	DeleteAllGenerations(ctx context.Context, deleteFiles bool) (api.DeleteAllResponse, error)
	DownloadFile(ctx context.Context, path string) ([]byte, error)
}

// Submitter abstracts the fan-out engine used for retries.
type Submitter interface {
	Submit(ctx context.Context, req submit.Request) (submit.Result, error)
}

// EventSource is the subset of the channel client the synchronizer consumes.
type EventSource interface {
	Subscribe(channelName string, handler channel.Handler) (*channel.Subscription, error)
}

// Synchronizer maintains a paginated, deduplicated view of the job queue.
// Every fetched page replaces the held one wholesale: the backend response
// is authoritative and no client-side reconciliation of stale contents is
// attempted. Push events are treated as a signal to refetch, never as a
// state patch.
type Synchronizer struct {
	api       API
	submitter Submitter
	logger    *slog.Logger
	coalesce  time.Duration

	mu             sync.Mutex
	page           int
	pageSize       int
	current        api.Page
	loading        bool
	fetchSeq       uint64
	refetchPending bool
	eventCtx       context.Context
	subs           []*channel.Subscription
	onUpdate       func(api.Page)
}

// Option customizes the synchronizer.
type Option func(*Synchronizer)

// WithPageSize overrides the page size.
func WithPageSize(size int) Option {
	return func(s *Synchronizer) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithCoalesceWindow overrides the event coalescing window.
func WithCoalesceWindow(window time.Duration) Option {
	return func(s *Synchronizer) {
		if window > 0 {
			s.coalesce = window
		}
	}
}

// WithLogger attaches a logger; the default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnUpdate registers a callback invoked with every applied page, both
// from explicit fetches and push-driven refetches.
func WithOnUpdate(fn func(api.Page)) Option {
	return func(s *Synchronizer) {
		s.onUpdate = fn
	}
}

// New constructs a synchronizer over the given backend surfaces.
func New(backend API, submitter Submitter, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:       backend,
		submitter: submitter,
		logger:    logging.NewNop(),
		coalesce:  DefaultCoalesceWindow,
		page:      1,
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// refetchEvents are the push event types that wake the synchronizer.
var refetchEvents = map[string]struct{}{
	channel.EventJobUpdated:         {},
	channel.EventJobCompleted:       {},
	channel.EventJobFailed:          {},
	channel.EventGenerationComplete: {},
}

// Start subscribes to the queue and generations channels and performs the
// initial page fetch. Stop releases the subscriptions.
func (s *Synchronizer) Start(ctx context.Context, events EventSource) error {
	s.mu.Lock()
	s.eventCtx = ctx
	s.mu.Unlock()

	for _, name := range []string{channel.ChannelQueue, channel.ChannelGenerations} {
		sub, err := events.Subscribe(name, s.handleEvent)
		if err != nil {
			s.Stop()
			return fmt.Errorf("subscribe %s: %w", name, err)
		}
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()
	}
	return s.Refresh(ctx)
}

// Stop releases the channel subscriptions held by Start.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// handleEvent decides whether a push event warrants a refetch. The event
// payload is never applied to the held page; the follow-up fetch is the
// source of truth.
func (s *Synchronizer) handleEvent(envelope channel.Envelope) {
	if _, ok := refetchEvents[envelope.Type]; !ok {
		return
	}
	s.scheduleRefetch()
}

// scheduleRefetch coalesces bursts of events into a single refetch per
// window.
func (s *Synchronizer) scheduleRefetch() {
	s.mu.Lock()
	if s.refetchPending {
		s.mu.Unlock()
		return
	}
	s.refetchPending = true
	ctx := s.eventCtx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	time.AfterFunc(s.coalesce, func() {
		s.mu.Lock()
		s.refetchPending = false
		s.mu.Unlock()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("push-driven refetch failed", slog.Any("error", err))
		}
	})
}

// Refresh refetches the currently displayed page.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()
	return s.FetchPage(ctx, page)
}

// FetchPage pulls the authoritative contents of the requested page and
// replaces the held page. A fetch started later supersedes one still in
// flight: the stale result is discarded when it eventually arrives.
func (s *Synchronizer) FetchPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.page = page
	s.loading = true
	pageSize := s.pageSize
	s.mu.Unlock()

	result, err := s.api.ListGenerations(ctx, page, pageSize)

	s.mu.Lock()
	if seq != s.fetchSeq || pageSize != s.pageSize {
		// A newer fetch superseded this one; its result wins.
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("fetch page %d: %w", page, err)
	}
	s.current = result
	if result.TotalPages > 0 && page > result.TotalPages {
		// Deletions shrank the list below the requested page.
		s.page = result.TotalPages
	}
	onUpdate := s.onUpdate
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(result)
	}
	return nil
}

// GoToPage navigates to an absolute page. It is a no-op while a fetch is in
// flight or when the page is out of bounds.
func (s *Synchronizer) GoToPage(ctx context.Context, page int) error {
	s.mu.Lock()
	if s.loading || page < 1 || (s.current.TotalPages > 0 && page > s.current.TotalPages) || page == s.page {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.FetchPage(ctx, page)
}

// NextPage advances one page when one exists.
func (s *Synchronizer) NextPage(ctx context.Context) error {
	s.mu.Lock()
	target := s.page + 1
	s.mu.Unlock()
	return s.GoToPage(ctx, target)
}

// PrevPage steps back one page when not already on the first.
func (s *Synchronizer) PrevPage(ctx context.Context) error {
	s.mu.Lock()
	target := s.page - 1
	s.mu.Unlock()
	return s.GoToPage(ctx, target)
}

// Page returns the most recently applied page contents.
func (s *Synchronizer) Page() api.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentPage returns the page number the view is on.
func (s *Synchronizer) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Loading reports whether a fetch is in flight.
func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Cancel requests cancellation of one active job and refetches the current
// page. The matching push event may arrive independently; coalescing keeps
// the extra signal cheap.
func (s *Synchronizer) Cancel(ctx context.Context, id string) error {
	if err := s.api.CancelJob(ctx, id); err != nil {
		return fmt.Errorf("cancel job %s: %w", id, err)
	}
	return s.Refresh(ctx)
}

// Delete removes one job record permanently and refetches.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteGeneration(ctx, id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return s.Refresh(ctx)
}

// CancelAll requests cancellation of every active job, reports the count,
// and refetches.
func (s *Synchronizer) CancelAll(ctx context.Context) (int, error) {
	resp, err := s.api.CancelAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("cancel all: %w", err)
	}
	if err := s.Refresh(ctx); err != nil {
		return resp.Cancelled, err
	}
	return resp.Cancelled, nil
}

// DeleteAll removes every job record, optionally deleting stored image
// files, reports the count, and refetches.
func (s *Synchronizer) DeleteAll(ctx context.Context, deleteFiles bool) (int, error) {
	resp, err := s.api.DeleteAllGenerations(ctx, deleteFiles)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	if err := s.Refresh(ctx); err != nil {
		return resp.Deleted, err
	}
	return resp.Deleted, nil
}

// Retry reconstructs a submission from a terminal job's stored parameters
// and resubmits it through the regular fan-out path. A brand-new job is
// created; the original record is left untouched. For modes that carry a
// source image the original bytes are re-fetched from the stored path.
func (s *Synchronizer) Retry(ctx context.Context, source job.Job) (submit.Result, error) {
	if !source.CanRetry() {
		return submit.Result{}, ErrNotRetryable
	}

	req := submit.Request{
		Mode:           source.Mode,
		Models:         []string{source.Model},
		Count:          1,
		Prompt:         source.Prompt,
		NegativePrompt: source.NegativePrompt,
		Params:         source.Params,
	}
	if source.Mode.NeedsSourceImage() {
		data, err := s.api.DownloadFile(ctx, source.SourceImage)
		if err != nil {
			return submit.Result{}, fmt.Errorf("retry job %s: fetch source image: %w", source.ID, err)
		}
		req.SourceImage = data
	}

	result, err := s.submitter.Submit(ctx, req)
	if err != nil {
		return submit.Result{}, fmt.Errorf("retry job %s: %w", source.ID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		return result, err
	}
	return result, nil
}
