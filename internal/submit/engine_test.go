package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"easel/internal/api"
	"easel/internal/job"
)

// creatorStub records every request and answers with sequential job IDs.
type creatorStub struct {
	mu       sync.Mutex
	requests []recordedRequest
	fail     func(req api.CreateJobRequest) error
}

type recordedRequest struct {
	op  api.Operation
	req api.CreateJobRequest
}

func (s *creatorStub) CreateJob(_ context.Context, op api.Operation, req api.CreateJobRequest) (api.CreateJobResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail(req); err != nil {
			return api.CreateJobResponse{}, err
		}
	}
	s.requests = append(s.requests, recordedRequest{op: op, req: req})
	return api.CreateJobResponse{ID: fmt.Sprintf("job-%d", len(s.requests)), Status: job.StatusPending}, nil
}

func (s *creatorStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func counterSeeds() func() uint32 {
	var mu sync.Mutex
	var next uint32
	return func() uint32 {
		mu.Lock()
		defer mu.Unlock()
		next++
		return next
	}
}

func TestSubmitIssuesModelTimesCountRequests(t *testing.T) {
	stub := &creatorStub{}
	engine := New(stub, WithSeedSource(counterSeeds()))

	result, err := engine.Submit(context.Background(), Request{
		Mode:   job.ModeGenerate,
		Models: []string{"sdxl", "sd15"},
		Count:  3,
		Prompt: "a fox in the snow",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if stub.count() != 6 {
		t.Fatalf("issued %d requests, want 6", stub.count())
	}
	if len(result.Accepted) != 6 || len(result.Failures) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.BatchID == "" {
		t.Fatal("expected a batch id")
	}
	if got := result.Summary(); got != "6 job(s) added to queue!" {
		t.Fatalf("unexpected summary %q", got)
	}

	// Issuance order follows model-list order then seed iteration.
	models := make(map[string]int)
	for _, accepted := range result.Accepted {
		models[accepted.Model]++
	}
	if models["sdxl"] != 3 || models["sd15"] != 3 {
		t.Fatalf("unexpected per-model distribution: %v", models)
	}
	if result.Accepted[0].Model != "sdxl" || result.Accepted[3].Model != "sd15" {
		t.Fatalf("accepted order does not follow issuance order: %+v", result.Accepted)
	}
}

func TestSubmitSingleImagePassesUserSeedThrough(t *testing.T) {
	stub := &creatorStub{}
	engine := New(stub, WithSeedSource(counterSeeds()))

	seed := uint32(1234)
	_, err := engine.Submit(context.Background(), Request{
		Mode:   job.ModeGenerate,
		Models: []string{"sdxl"},
		Count:  1,
		Prompt: "deterministic fox",
		Params: job.GenerationParams{Seed: &seed},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := stub.requests[0].req.Params.Seed
	if got == nil || *got != 1234 {
		t.Fatalf("seed not passed through: %v", got)
	}
}

func TestSubmitMultipleImagesIgnoresUserSeedAndDrawsUniqueOnes(t *testing.T) {
	stub := &creatorStub{}
	engine := New(stub, WithSeedSource(counterSeeds()))

	seed := uint32(1234)
	_, err := engine.Submit(context.Background(), Request{
		Mode:   job.ModeGenerate,
		Models: []string{"sdxl"},
		Count:  4,
		Prompt: "four distinct foxes",
		Params: job.GenerationParams{Seed: &seed},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	seen := make(map[uint32]bool)
	for _, recorded := range stub.requests {
		got := recorded.req.Params.Seed
		if got == nil {
			t.Fatal("expected a drawn seed on every request")
		}
		if *got == 1234 {
			t.Fatal("user seed must be ignored when count > 1")
		}
		if seen[*got] {
			t.Fatalf("seed %d reused within the batch", *got)
		}
		seen[*got] = true
	}
}

func TestSubmitValidationFailsFastWithoutNetworkCalls(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "no models",
			req:     Request{Mode: job.ModeGenerate, Count: 1, Prompt: "x"},
			wantErr: ErrNoModelSelected,
		},
		{
			name:    "empty prompt after trimming",
			req:     Request{Mode: job.ModeGenerate, Models: []string{"a"}, Count: 1, Prompt: "   \t  "},
			wantErr: ErrEmptyPrompt,
		},
		{
			name:    "variation needs prompt too",
			req:     Request{Mode: job.ModeVariation, Models: []string{"a"}, Count: 1, SourceImage: []byte("img")},
			wantErr: ErrEmptyPrompt,
		},
		{
			name:    "edit needs a source image",
			req:     Request{Mode: job.ModeEdit, Models: []string{"a"}, Count: 1, Prompt: "replace the sky"},
			wantErr: ErrMissingSourceImage,
		},
		{
			name:    "upscale needs a source image but no prompt",
			req:     Request{Mode: job.ModeUpscale, Models: []string{"a"}, Count: 1},
			wantErr: ErrMissingSourceImage,
		},
		{
			name:    "zero count",
			req:     Request{Mode: job.ModeGenerate, Models: []string{"a"}, Prompt: "x"},
			wantErr: ErrInvalidCount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &creatorStub{}
			engine := New(stub)
			_, err := engine.Submit(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit error = %v, want %v", err, tt.wantErr)
			}
			if stub.count() != 0 {
				t.Fatalf("validation failure still issued %d requests", stub.count())
			}
		})
	}
}

func TestSubmitVideoModeAllowsEmptyPrompt(t *testing.T) {
	stub := &creatorStub{}
	engine := New(stub)
	result, err := engine.Submit(context.Background(), Request{
		Mode:   job.ModeVideo,
		Models: []string{"wan"},
		Count:  1,
		Params: job.GenerationParams{VideoFrames: 33, VideoFPS: 16},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(result.Accepted) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if stub.requests[0].op != api.OpVideo {
		t.Fatalf("video mode routed to %q", stub.requests[0].op)
	}
}

func TestSubmitPartialFailureDoesNotBlockSiblings(t *testing.T) {
	stub := &creatorStub{
		fail: func(req api.CreateJobRequest) error {
			if req.Model == "broken" {
				return errors.New("model not available")
			}
			return nil
		},
	}
	engine := New(stub, WithSeedSource(counterSeeds()))

	result, err := engine.Submit(context.Background(), Request{
		Mode:   job.ModeGenerate,
		Models: []string{"sdxl", "broken"},
		Count:  2,
		Prompt: "resilient batch",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(result.Accepted) != 2 {
		t.Fatalf("accepted = %d, want 2", len(result.Accepted))
	}
	if len(result.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(result.Failures))
	}
	for _, failure := range result.Failures {
		if failure.Model != "broken" {
			t.Fatalf("unexpected failing model %q", failure.Model)
		}
	}
	if got := result.Summary(); got != "2 job(s) added to queue, 2 failed" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestRouteOperation(t *testing.T) {
	tests := []struct {
		mode      job.Mode
		hasSource bool
		want      api.Operation
	}{
		{job.ModeGenerate, false, api.OpGenerate},
		{job.ModeGenerate, true, api.OpVariation},
		{job.ModeVariation, true, api.OpVariation},
		{job.ModeEdit, true, api.OpEdit},
		{job.ModeVideo, false, api.OpVideo},
		{job.ModeUpscale, true, api.OpUpscale},
	}
	for _, tt := range tests {
		if got := RouteOperation(tt.mode, tt.hasSource); got != tt.want {
			t.Errorf("RouteOperation(%s, %v) = %s, want %s", tt.mode, tt.hasSource, got, tt.want)
		}
	}
}
