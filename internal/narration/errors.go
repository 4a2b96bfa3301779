package narration

import "errors"

var (
	// ErrMissingSlug indicates the request did not name a blog.
	ErrMissingSlug = errors.New("missing slug")
	// ErrContentNotFound indicates no blog exists for the slug.
	ErrContentNotFound = errors.New("blog not found")
	// ErrTextTooShort indicates the normalized blog body is too short to narrate.
	ErrTextTooShort = errors.New("blog text too short to narrate")
	// ErrCacheMiss indicates no cached audio exists for the slug.
	ErrCacheMiss = errors.New("audio cache miss")
	// ErrSynthesisFailed indicates a segment failed on both attempts.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrStillGenerating indicates the time budget ran out or another request owns generation.
	ErrStillGenerating = errors.New("audio still generating")
)
