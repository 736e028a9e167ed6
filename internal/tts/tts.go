// Package tts synthesizes speech audio with a content-hash file cache and a
// provider fallback chain. The coordinator's outward contract is never-fail:
// audio playback must not block the user experience, so every request gets
// some artifact, preferring real synthesis and degrading to a placeholder.
package tts

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// MinValidBytes is the smallest artifact accepted as a real render. Anything
// under it is treated as truncated or corrupt and is never served from cache.
const MinValidBytes = 4096

// DefaultSpeed is the normalized zero-adjustment speed.
const DefaultSpeed = "+0%"

// Config is the process-wide TTS configuration.
type Config struct {
	Provider   string `envconfig:"TTS_PROVIDER" default:"edge"`
	Voice      string `envconfig:"TTS_VOICE" default:"en-US-AriaNeural"`
	Speed      string `envconfig:"TTS_SPEED" default:"+0%"`
	Format     string `envconfig:"TTS_FORMAT" default:"mp3"`
	StaticDir  string `envconfig:"STATIC_DIR" default:"./static"`
	MaxTextLen int    `envconfig:"TTS_MAX_TEXT_LEN" default:"5000"`
}

// Request carries normalized synthesis inputs.
type Request struct {
	Text   string
	Voice  string
	Speed  string // signed percentage form, e.g. "+10%"
	Format string // target container, lowercase
}

// Artifact describes one synthesized (or cached) audio file.
type Artifact struct {
	CacheKey string `json:"-"`
	Path     string `json:"-"`
	URL      string `json:"audio_url"`
	Size     int64  `json:"size"`
	Voice    string `json:"voice"`
	Speed    string `json:"speed"`
	Format   string `json:"format"`
	Provider string `json:"provider"`
	Cached   bool   `json:"cached"`
}

// Provider renders text to an audio file and returns the written path.
// Implementations signal failure for engine errors or undersized output; the
// coordinator owns the fallback decision.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (string, error)
}

var speedRe = regexp.MustCompile(`^[+-]\d+%$`)

// NormalizeSpeed coerces user input into the signed-percentage form the
// speech engines expect: "10" → "+10%", "-5%" stays, out-of-range values are
// formatted but not clamped (clamping, if any, is provider-side). Anything
// unparseable falls back to the default rather than failing.
func NormalizeSpeed(s, def string) string {
	if def == "" {
		def = DefaultSpeed
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if speedRe.MatchString(s) {
		return s
	}
	if !strings.HasSuffix(s, "%") {
		s += "%"
	}
	if !strings.HasPrefix(s, "+") && !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	if !speedRe.MatchString(s) {
		return def
	}
	return s
}

// speedPercent parses a normalized speed string into a signed integer
// percentage. Invalid input yields 0.
func speedPercent(s string) int {
	s = strings.TrimSuffix(s, "%")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
