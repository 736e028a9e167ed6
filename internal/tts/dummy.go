package tts

import (
	"context"
	"os"
)

// placeholderPayload is a minimal fake ID3 header. Not intended for real
// playback; it only guarantees the coordinator's never-fail contract.
var placeholderPayload = []byte{0x49, 0x44, 0x33, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x21}

// DummyProvider always succeeds by writing a fixed placeholder payload.
type DummyProvider struct {
	cache *Cache
}

func NewDummyProvider(cache *Cache) *DummyProvider {
	return &DummyProvider{cache: cache}
}

func (p *DummyProvider) Name() string { return "dummy" }

func (p *DummyProvider) Synthesize(ctx context.Context, req Request) (string, error) {
	out := p.cache.Path(FileName(CacheKey(req.Text, req.Voice, req.Speed), req.Format))
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}
	if err := os.WriteFile(out, placeholderPayload, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

var _ Provider = (*DummyProvider)(nil)
