// Package narration turns blog posts into cached MP3 narration.
package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-site/internal/claim"
	"family-site/internal/helper"
	"family-site/internal/models"
	"family-site/internal/speech"

	"github.com/rs/zerolog"
)

// ContentLoader reads blog posts. A missing post must wrap ErrContentNotFound.
type ContentLoader interface {
	GetBySlug(ctx context.Context, slug string) (models.Blog, error)
}

// AudioCache stores one narration per slug. A miss must wrap ErrCacheMiss.
type AudioCache interface {
	Lookup(ctx context.Context, slug string) (models.AudioCacheEntry, error)
	Save(ctx context.Context, entry models.AudioCacheEntry) error
}

// Claimer grants one request at a time the right to generate a slug.
type Claimer interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Notifier is told when fresh audio has been cached.
type Notifier interface {
	AudioReady(slug string)
}

type Options struct {
	TargetChunkSize int
	MaxSegments     int
	MinTextLength   int
	// CallTimeout bounds the first attempt of each segment; the retry is unbounded.
	CallTimeout time.Duration
	// Budget is the wall-clock ceiling for one request; zero means none.
	Budget  time.Duration
	Voice   string
	Model   string
	Persona string
}

type Deps struct {
	Content     ContentLoader
	Cache       AudioCache
	Synthesizer speech.Synthesizer
	Claims      Claimer
	Notifier    Notifier
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Result is the audio for one request.
type Result struct {
	Audio     []byte
	Cached    bool
	Truncated bool
	Segments  int
}

type Service struct {
	content  ContentLoader
	cache    AudioCache
	synth    speech.Synthesizer
	claims   Claimer
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
	chunker  Chunker
	opts     Options
}

func NewService(d Deps, opts Options) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		content:  d.Content,
		cache:    d.Cache,
		synth:    d.Synthesizer,
		claims:   d.Claims,
		notifier: d.Notifier,
		log:      d.Logger.With().Str("component", "narration").Logger(),
		now:      now,
		chunker:  Chunker{TargetSize: opts.TargetChunkSize, MaxSegments: opts.MaxSegments},
		opts:     opts,
	}
}

// Generate returns the narration for slug, from cache when the cached audio
// still matches the post text, otherwise by synthesizing it segment by segment.
func (s *Service) Generate(ctx context.Context, slug string) (*Result, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrMissingSlug
	}

	start := s.now()
	log := s.log.With().Str("slug", slug).Logger()

	blog, err := s.content.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	text, err := NarrationText(blog.Title, blog.Content, s.opts.MinTextLength)
	if err != nil {
		return nil, fmt.Errorf("blog %q: %w", slug, err)
	}
	hash := helper.ContentHash(text)

	if cached, ok := s.lookup(ctx, log, slug, hash); ok {
		return cached, nil
	}

	if s.claims != nil {
		release, err := s.claims.Acquire(ctx, slug)
		switch {
		case err == nil:
			defer release()
			// the previous holder may have finished between lookup and acquire
			if cached, ok := s.lookup(ctx, log, slug, hash); ok {
				return cached, nil
			}
		case errors.Is(err, claim.ErrHeld):
			log.Info().Msg("generation already in progress elsewhere")
			return nil, fmt.Errorf("%w: another request is generating %q", ErrStillGenerating, slug)
		default:
			log.Warn().Err(err).Msg("claim unavailable, generating without it")
		}
	}

	split := s.chunker.Split(text)
	if split.Truncated {
		log.Warn().
			Int("segments", len(split.Segments)).
			Int("dropped_chars", split.DroppedRunes).
			Msg("narration truncated at max segments")
	}

	total := len(split.Segments)
	parts := make([][]byte, 0, total)

	for i, segment := range split.Segments {
		if s.opts.Budget > 0 && s.now().Sub(start) > s.opts.Budget {
			log.Warn().Int("done", i).Int("total", total).Msg("time budget exhausted")
			return nil, fmt.Errorf("%w: %d of %d segments done", ErrStillGenerating, i, total)
		}

		audio, err := s.synthesizeWithRetry(ctx, log, s.request(segment, i, total))
		if err != nil {
			return nil, fmt.Errorf("segment %d of %d: %w", i+1, total, err)
		}
		parts = append(parts, audio)
	}

	audio := Concat(parts)

	entry := models.AudioCacheEntry{
		Slug:        slug,
		Audio:       audio,
		ContentHash: hash,
		CreatedAt:   s.now().UTC(),
	}
	// the caller may already be gone; the audio is still worth keeping
	if err := s.cache.Save(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Msg("failed to cache narration")
	} else if s.notifier != nil {
		s.notifier.AudioReady(slug)
	}

	log.Info().
		Int("segments", total).
		Int("bytes", len(audio)).
		Dur("took", s.now().Sub(start)).
		Msg("narration generated")

	return &Result{Audio: audio, Truncated: split.Truncated, Segments: total}, nil
}

func (s *Service) lookup(ctx context.Context, log zerolog.Logger, slug, hash string) (*Result, bool) {
	entry, err := s.cache.Lookup(ctx, slug)
	switch {
	case err == nil:
		if entry.ContentHash != "" && entry.ContentHash != hash {
			log.Info().Msg("cached narration is stale, regenerating")
			return nil, false
		}
		return &Result{Audio: entry.Audio, Cached: true}, true
	case errors.Is(err, ErrCacheMiss):
		return nil, false
	default:
		log.Warn().Err(err).Msg("audio cache lookup failed, regenerating")
		return nil, false
	}
}

func (s *Service) request(segment string, index, total int) speech.Request {
	instructions := s.opts.Persona
	if total > 1 {
		instructions = strings.TrimSpace(instructions + fmt.Sprintf(
			"\n\nThis is part %d of %d of one continuous narration. Continue seamlessly in the same voice, pace and tone.",
			index+1, total))
	}

	return speech.Request{
		Model:        s.opts.Model,
		Voice:        s.opts.Voice,
		Input:        segment,
		Instructions: instructions,
		Format:       speech.FormatMP3,
	}
}

// synthesizeWithRetry makes one attempt under CallTimeout and, if that fails for
// any reason other than the request itself ending, one more without it.
func (s *Service) synthesizeWithRetry(ctx context.Context, log zerolog.Logger, req speech.Request) ([]byte, error) {
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if s.opts.CallTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, s.opts.CallTimeout)
	}
	audio, err := s.synth.Synthesize(attemptCtx, req)
	cancel()
	if err == nil {
		return audio, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var apiErr *speech.APIError
	transient := !errors.As(err, &apiErr) || apiErr.Temporary()
	log.Warn().Err(err).Bool("transient", transient).Msg("speech call failed, retrying once")

	audio, err = s.synth.Synthesize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	return audio, nil
}
