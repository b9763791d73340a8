// Package submit implements the fan-out engine that turns one user
// submission into independent job-creation requests: one per selected model
// per requested image, issued concurrently and reported as a single
// aggregate result.
//
// Validation runs before any network call and surfaces a distinct sentinel
// per condition. Endpoint routing is a pure function of mode plus
// source-image presence so a retry built from a persisted job record always
// hits the operation that created the original.
package submit
