package submit

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"

	"easel/internal/api"
	"easel/internal/job"
	"easel/internal/logging"
)

// Creator abstracts the queue API surface the engine issues requests to.
type Creator interface {
	CreateJob(ctx context.Context, op api.Operation, req api.CreateJobRequest) (api.CreateJobResponse, error)
}

// Request is one user-initiated submission before fan-out.
type Request struct {
	Mode           job.Mode
	Models         []string
	Count          int
	Prompt         string
	NegativePrompt string
	Params         job.GenerationParams

	SourceImage     []byte
	SourceImageName string
}

// Accepted records one job the backend accepted.
type Accepted struct {
	JobID     string
	Model     string
	Operation api.Operation
	Seed      *uint32
}

// Failure records one creation request the backend rejected. Failures never
// abort sibling requests in the same batch.
type Failure struct {
	Model string
	Index int
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("model %s (request %d): %v", f.Model, f.Index+1, f.Err)
}

// Result aggregates one fan-out batch. Accepted and Failures together cover
// every issued request; Accepted order follows issuance order (model-list
// order, then seed iteration).
type Result struct {
	BatchID  string
	Accepted []Accepted
	Failures []Failure
}

// Requested returns the number of requests the batch issued.
func (r Result) Requested() int {
	return len(r.Accepted) + len(r.Failures)
}

// Summary renders the aggregate count reported to the user.
func (r Result) Summary() string {
	if len(r.Failures) == 0 {
		return fmt.Sprintf("%d job(s) added to queue!", len(r.Accepted))
	}
	return fmt.Sprintf("%d job(s) added to queue, %d failed", len(r.Accepted), len(r.Failures))
}

// Engine turns one submission into M×n independent job-creation requests.
type Engine struct {
	creator Creator
	logger  *slog.Logger
	seedFn  func() uint32
}

// Option customizes the engine.
type Option func(*Engine)

// WithLogger attaches a logger; the default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSeedSource overrides the random seed generator (useful for tests).
func WithSeedSource(seedFn func() uint32) Option {
	return func(e *Engine) {
		if seedFn != nil {
			e.seedFn = seedFn
		}
	}
}

// New constructs a fan-out engine issuing requests through the creator.
func New(creator Creator, opts ...Option) *Engine {
	engine := &Engine{
		creator: creator,
		logger:  logging.NewNop(),
		seedFn:  rand.Uint32,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Validate checks the submission before any backend call. The first failing
// condition is returned; nothing is submitted on failure.
func (r *Request) Validate() error {
	if len(r.Models) == 0 {
		return ErrNoModelSelected
	}
	if r.Count < 1 {
		return ErrInvalidCount
	}
	if r.Mode.RequiresPrompt() && strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.Mode.NeedsSourceImage() && len(r.SourceImage) == 0 {
		return ErrMissingSourceImage
	}
	return nil
}

// Submit fans the request out to Count jobs per selected model, issued
// concurrently. The user-supplied seed passes through only when Count is 1;
// otherwise each job draws its own random 32-bit seed so requesting multiple
// images never silently produces identical outputs. Per-request failures are
// collected without blocking siblings; Submit returns an error only when
// validation fails before any network call.
func (e *Engine) Submit(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	op := RouteOperation(req.Mode, len(req.SourceImage) > 0)
	batchID := uuid.NewString()
	total := len(req.Models) * req.Count

	e.logger.Info("submitting batch",
		slog.String("batch_id", batchID),
		slog.String("operation", string(op)),
		slog.Int("models", len(req.Models)),
		slog.Int("count", req.Count),
		slog.Int("requests", total))

	type outcome struct {
		accepted *Accepted
		failure  *Failure
	}
	outcomes := make([]outcome, total)

	var wg sync.WaitGroup
	index := 0
	for _, model := range req.Models {
		for i := 0; i < req.Count; i++ {
			create := api.CreateJobRequest{
				Model:           model,
				Prompt:          strings.TrimSpace(req.Prompt),
				NegativePrompt:  strings.TrimSpace(req.NegativePrompt),
				Params:          req.Params,
				SourceImage:     req.SourceImage,
				SourceImageName: req.SourceImageName,
			}
			if req.Count > 1 {
				seed := e.seedFn()
				create.Params.Seed = &seed
			}

			wg.Add(1)
			go func(slot int, model string, create api.CreateJobRequest) {
				defer wg.Done()
				resp, err := e.creator.CreateJob(ctx, op, create)
				if err != nil {
					outcomes[slot] = outcome{failure: &Failure{Model: model, Index: slot, Err: err}}
					return
				}
				outcomes[slot] = outcome{accepted: &Accepted{
					JobID:     resp.ID,
					Model:     model,
					Operation: op,
					Seed:      create.Params.Seed,
				}}
			}(index, model, create)
			index++
		}
	}
	wg.Wait()

	result := Result{BatchID: batchID}
	for _, o := range outcomes {
		switch {
		case o.accepted != nil:
			result.Accepted = append(result.Accepted, *o.accepted)
		case o.failure != nil:
			result.Failures = append(result.Failures, *o.failure)
		}
	}

	e.logger.Info("batch finished",
		slog.String("batch_id", batchID),
		slog.Int("accepted", len(result.Accepted)),
		slog.Int("failed", len(result.Failures)))

	return result, nil
}
