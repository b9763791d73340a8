// Package history persists a local record of every submission the client
// makes, so past prompts and parameters can be reviewed or reused without
// asking the backend.
package history
