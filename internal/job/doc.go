// Package job defines the canonical vocabulary for generation jobs: the
// status lifecycle, the mode enum, and the job record exchanged with the
// backend queue.
//
// Statuses move one-directionally through
// pending → [model_loading] → processing → {completed | failed | cancelled};
// terminal jobs are immutable from the client's perspective. The predicates
// IsActive and IsTerminalFailure drive which actions (cancel, retry, delete)
// the rest of the client offers for an item.
//
// The package performs no I/O. Treat it as the single source of truth for
// job semantics; new statuses or modes are added here first.
package job
