package main

import (
	"fmt"

	"easel/internal/api"
	"easel/internal/job"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

var queueTableHeaders = []string{"ID", "Mode", "Model", "Status", "Prompt", "Created"}

func buildQueueRows(jobs []job.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.ID,
			j.Mode.DisplayLabel(),
			j.Model,
			j.Status.DisplayLabel(),
			truncate(j.Prompt, 48),
			formatAge(j.CreatedAt),
		})
	}
	return rows
}

func pageFooter(page api.Page) string {
	if page.TotalPages <= 1 {
		return fmt.Sprintf("%d job(s)", page.Total)
	}
	return fmt.Sprintf("Page %d of %d (%d jobs)", page.Page, page.TotalPages, page.Total)
}

// colorizeStatus wraps a status label in ANSI color codes when writing to a
// terminal.
func colorizeStatus(status job.Status, colorize bool) string {
	label := status.DisplayLabel()
	if !colorize {
		return label
	}
	switch {
	case status == job.StatusCompleted:
		return ansiGreen + label + ansiReset
	case status == job.StatusFailed:
		return ansiRed + label + ansiReset
	case job.IsActive(status):
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}
