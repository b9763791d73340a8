// Package queueview keeps a paginated view of the generation queue in sync
// with the backend. It refetches on push events instead of patching local
// state, so the displayed page always reflects an authoritative backend
// response.
package queueview
