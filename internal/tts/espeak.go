package tts

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// Rate mapping for the local engine: percentage speed perturbs the base
// words-per-minute, clamped to the range espeak renders intelligibly.
const (
	espeakBaseRate = 175
	espeakMinRate  = 80
	espeakMaxRate  = 450
)

var langCodeRe = regexp.MustCompile(`[a-z]{2}`)

// runner abstracts command execution so voice matching and rate mapping are
// testable without espeak installed.
type runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// EspeakProvider is the offline engine backed by the espeak-ng binary.
// It always writes a lossless WAV regardless of the requested format, so its
// artifacts live under the wav extension for the same cache key.
type EspeakProvider struct {
	cache *Cache
	bin   string
	run   runner
}

func NewEspeakProvider(cache *Cache) *EspeakProvider {
	bin := "espeak-ng"
	if _, err := exec.LookPath(bin); err != nil {
		bin = "espeak"
	}
	return &EspeakProvider{cache: cache, bin: bin, run: execRunner{}}
}

func (p *EspeakProvider) Name() string { return "espeak" }

func (p *EspeakProvider) Synthesize(ctx context.Context, req Request) (string, error) {
	// WAV is forced; the key still hashes the caller's normalized inputs.
	name := FileName(CacheKey(req.Text, req.Voice, req.Speed), "wav")
	out := p.cache.Path(name)

	// The coordinator's lookup keys on the requested format, so a wav
	// artifact must be reused here: a valid render is never overwritten.
	if size, ok := p.cache.Lookup(name); ok {
		logx.Debug().Str("key", name).Int64("size", size).Msg("reusing cached wav artifact")
		return out, nil
	}

	args := []string{"-s", strconv.Itoa(mapRate(req.Speed))}
	if v := p.pickVoice(ctx, req.Voice); v != "" {
		args = append(args, "-v", v)
	}
	args = append(args, "-w", out, req.Text)

	if err := p.run.Run(ctx, p.bin, args...); err != nil {
		return "", fmt.Errorf("%s: %w", p.bin, err)
	}
	if size := p.cache.SizeOf(out); size < MinValidBytes {
		return "", fmt.Errorf("local engine produced tiny file (%d bytes)", size)
	}
	return out, nil
}

// pickVoice matches the requested voice against the engine's voice list:
// exact substring first, then by 2-letter language code, else empty so the
// engine default applies.
func (p *EspeakProvider) pickVoice(ctx context.Context, voice string) string {
	target := strings.ToLower(strings.TrimSpace(voice))
	if target == "" {
		return ""
	}

	listing, err := p.run.Output(ctx, p.bin, "--voices")
	if err != nil {
		logx.Warn().Err(err).Msg("could not list local voices; using engine default")
		return ""
	}

	voices := parseVoices(string(listing))
	for _, v := range voices {
		if strings.Contains(strings.ToLower(v.name), target) || strings.Contains(strings.ToLower(v.lang), target) {
			return v.lang
		}
	}
	if code := langCodeRe.FindString(target); code != "" {
		for _, v := range voices {
			if strings.HasPrefix(strings.ToLower(v.lang), code) {
				return v.lang
			}
		}
	}
	return ""
}

type espeakVoice struct {
	lang string
	name string
}

// parseVoices reads `espeak-ng --voices` output. Column layout:
// Pty Language Age/Gender VoiceName File Other
func parseVoices(listing string) []espeakVoice {
	var voices []espeakVoice
	lines := strings.Split(listing, "\n")
	for i, line := range lines {
		if i == 0 { // header
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, espeakVoice{lang: fields[1], name: fields[3]})
	}
	return voices
}

// mapRate converts a normalized percentage speed into an absolute
// words-per-minute rate for the engine.
func mapRate(speed string) int {
	pct := speedPercent(speed)
	rate := espeakBaseRate * (100 + pct) / 100
	if rate < espeakMinRate {
		return espeakMinRate
	}
	if rate > espeakMaxRate {
		return espeakMaxRate
	}
	return rate
}

var _ Provider = (*EspeakProvider)(nil)
