// Package api implements the REST client for the backend queue surface:
// job creation per operation (generate, variation, edit, video, upscale),
// cancellation, the paginated generations list, and record deletion.
//
// Responses are decoded into the job package's types so every consumer
// shares one vocabulary. Non-success HTTP statuses surface as *StatusError
// with the response body preserved for display.
package api
