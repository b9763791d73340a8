package main

import (
	"testing"
	"time"

	"easel/internal/job"
)

func TestQueueListRendersJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.addJob(job.Job{
		ID:        "job-alpha",
		Status:    job.StatusProcessing,
		Mode:      job.ModeGenerate,
		Model:     "sdxl",
		Prompt:    "a lighthouse at dusk",
		CreatedAt: time.Now(),
	})
	env.backend.addJob(job.Job{
		ID:     "job-beta",
		Status: job.StatusFailed,
		Mode:   job.ModeVideo,
		Model:  "wan",
		Error:  "out of VRAM",
	})

	out, _, err := runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "job-alpha")
	requireContains(t, out, "job-beta")
	requireContains(t, out, "Processing")
	requireContains(t, out, "Failed")
	requireContains(t, out, "2 job(s)")
}

func TestQueueListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueCancelAndCancelAll(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.addJob(job.Job{ID: "job-1", Status: job.StatusPending, Mode: job.ModeGenerate})
	env.backend.addJob(job.Job{ID: "job-2", Status: job.StatusProcessing, Mode: job.ModeGenerate})

	out, _, err := runCLI(t, []string{"queue", "cancel", "job-1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue cancel: %v", err)
	}
	requireContains(t, out, "Cancellation requested for job-1")

	out, _, err = runCLI(t, []string{"queue", "cancel-all"}, env.configPath)
	if err != nil {
		t.Fatalf("queue cancel-all: %v", err)
	}
	requireContains(t, out, "Cancelled 1 job(s)")
}

func TestQueueRetryResubmitsFailedJob(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.addJob(job.Job{
		ID:     "job-1",
		Status: job.StatusFailed,
		Mode:   job.ModeGenerate,
		Model:  "sdxl",
		Prompt: "retry me",
	})

	out, _, err := runCLI(t, []string{"queue", "retry", "job-1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "1 job(s) added to queue!")
	if got := env.backend.createCount(); got != 1 {
		t.Fatalf("expected one creation request, backend saw %d", got)
	}
}

func TestQueueRetryRejectsActiveJob(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.addJob(job.Job{ID: "job-1", Status: job.StatusProcessing, Mode: job.ModeGenerate})

	_, _, err := runCLI(t, []string{"queue", "retry", "job-1"}, env.configPath)
	if err == nil {
		t.Fatal("expected retry of an active job to fail")
	}
}

func TestQueueClearForceDeletesEverything(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.addJob(job.Job{ID: "job-1", Status: job.StatusCompleted, Mode: job.ModeGenerate})
	env.backend.addJob(job.Job{ID: "job-2", Status: job.StatusFailed, Mode: job.ModeGenerate})

	out, _, err := runCLI(t, []string{"queue", "clear", "--force", "--delete-files"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Deleted 2 job record(s)")
}

func TestQueueDeleteRemovesRecord(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.addJob(job.Job{ID: "job-1", Status: job.StatusCompleted, Mode: job.ModeGenerate})

	out, _, err := runCLI(t, []string{"queue", "delete", "job-1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue delete: %v", err)
	}
	requireContains(t, out, "Deleted job-1")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueShowPrintsDetails(t *testing.T) {
	env := setupCLITestEnv(t)
	seed := uint32(7)
	env.backend.addJob(job.Job{
		ID:     "job-1",
		Status: job.StatusCompleted,
		Mode:   job.ModeGenerate,
		Model:  "sdxl",
		Prompt: "a lighthouse",
		Params: job.GenerationParams{Width: 512, Height: 768, Seed: &seed},
	})

	out, _, err := runCLI(t, []string{"queue", "show", "job-1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "job-1")
	requireContains(t, out, "512x768")
	requireContains(t, out, "Seed:    7")
	requireContains(t, out, "a lighthouse")
}
