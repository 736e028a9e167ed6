package tts

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// Coordinator orchestrates cache lookup, provider invocation, and
// fallback-on-failure. Its contract is never-fail: once the request is
// non-empty it always returns some artifact, preferring the primary engine
// and degrading to the dummy placeholder.
//
// Two concurrent requests for the same key may both miss and both render to
// the same destination path. That race is accepted: content derives
// identically from the key, so last-writer-wins is benign.
type Coordinator struct {
	cache    *Cache
	primary  Provider
	fallback Provider
	cfg      Config
}

func NewCoordinator(cache *Cache, primary Provider, cfg Config) *Coordinator {
	return &Coordinator{
		cache:    cache,
		primary:  primary,
		fallback: NewDummyProvider(cache),
		cfg:      cfg,
	}
}

// Synthesize returns a playable artifact for the given text. Voice, speed,
// and format default from configuration when unset; text beyond the
// configured maximum is truncated rather than rejected.
func (c *Coordinator) Synthesize(ctx context.Context, text, voice, speed, format string) (*Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}

	req := c.normalize(text, voice, speed, format)
	name := FileName(CacheKey(req.Text, req.Voice, req.Speed), req.Format)

	if size, ok := c.cache.Lookup(name); ok {
		logx.Debug().Str("key", name).Int64("size", size).Msg("tts cache hit")
		return c.artifact(c.cache.Path(name), req, "cache", true, size), nil
	}

	path, provider, err := c.render(ctx, req)
	if err != nil {
		// The dummy itself failed; only disk-level errors reach here.
		return nil, err
	}
	return c.artifact(path, req, provider, false, c.cache.SizeOf(path)), nil
}

// render tries the primary provider and falls back to the dummy on any
// error or undersized output.
func (c *Coordinator) render(ctx context.Context, req Request) (string, string, error) {
	if c.primary != nil {
		path, err := c.primary.Synthesize(ctx, req)
		if err == nil && c.cache.SizeOf(path) >= MinValidBytes {
			return path, c.primary.Name(), nil
		}
		if err != nil {
			logx.Warn().Err(err).Str("provider", c.primary.Name()).Msg("primary tts provider failed; falling back")
		} else {
			logx.Warn().Str("provider", c.primary.Name()).Msg("primary tts provider produced undersized file; falling back")
		}
	}

	path, err := c.fallback.Synthesize(ctx, req)
	if err != nil {
		return "", "", fmt.Errorf("fallback synthesis: %w", err)
	}
	return path, c.fallback.Name(), nil
}

func (c *Coordinator) normalize(text, voice, speed, format string) Request {
	if voice == "" {
		voice = c.cfg.Voice
	}
	speed = NormalizeSpeed(speed, NormalizeSpeed(c.cfg.Speed, DefaultSpeed))
	if format == "" {
		format = c.cfg.Format
	}
	format = strings.ToLower(format)
	if max := c.cfg.MaxTextLen; max > 0 {
		if r := []rune(text); len(r) > max {
			text = string(r[:max])
		}
	}
	return Request{Text: text, Voice: voice, Speed: speed, Format: format}
}

func (c *Coordinator) artifact(path string, req Request, provider string, cached bool, size int64) *Artifact {
	name := filepath.Base(path)
	return &Artifact{
		CacheKey: strings.TrimSuffix(name, filepath.Ext(name)),
		Path:     path,
		URL:      c.cache.URL(name),
		Size:     size,
		Voice:    req.Voice,
		Speed:    req.Speed,
		Format:   strings.TrimPrefix(filepath.Ext(name), "."),
		Provider: provider,
		Cached:   cached,
	}
}
