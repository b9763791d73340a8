package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseSize parses a "WIDTHxHEIGHT" flag value.
func parseSize(value string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(value)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q (expected WIDTHxHEIGHT)", value)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid width in size %q", value)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid height in size %q", value)
	}
	return width, height, nil
}

// truncate shortens text for table cells, keeping a trailing ellipsis.
func truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 3 || len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}

// formatAge renders how long ago a timestamp occurred, coarsely.
func formatAge(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	age := time.Since(at)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return at.Format("2006-01-02")
	}
}
