// Package tasks implements background link-resolution jobs over the track catalog.
//
// The core abstraction is [Manager], which owns the single-flight batch job:
// at most one resolution task is queued or processing at a time, and
// submitting while one is active returns the existing task unchanged. Task
// records live in an injectable [Registry]; the in-memory implementation is
// the only one shipped, so records do not survive restarts.
//
// The worker goroutine processes candidates in fixed-size batches, throttled
// by a token-bucket rate limiter plus a fixed inter-track delay. Every wait
// is interruptible: a stop request or context cancellation takes effect at
// the next item boundary, never mid-write. Transient upstream errors are
// retried with exponential backoff, honoring the server's Retry-After hint
// when one was supplied; permanent errors fail the item immediately and the
// batch moves on.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks
