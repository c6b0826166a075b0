package crawl

import "errors"

var (
	// ErrStopped reports a crawl interrupted by cancellation. Progress has
	// been checkpointed; the next run resumes where this one stopped.
	ErrStopped = errors.New("crawl stopped before completion")

	// ErrMaxRetries reports a tool page that failed every attempt.
	ErrMaxRetries = errors.New("tool failed after retries")

	// ErrNoTools reports a listing that yielded no tool links at all,
	// usually a sign the card selector no longer matches the site.
	ErrNoTools = errors.New("no tools discovered on listing page")
)
