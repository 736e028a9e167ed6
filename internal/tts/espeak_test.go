package tts

import (
	"bytes"
	"context"
	"os"
	"testing"
)

// stubRunner scripts engine execution for espeak provider tests.
type stubRunner struct {
	runCalls int
	size     int
	voices   string
}

func (r *stubRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return []byte(r.voices), nil
}

func (r *stubRunner) Run(ctx context.Context, name string, args ...string) error {
	r.runCalls++
	for i, a := range args {
		if a == "-w" && i+1 < len(args) {
			return os.WriteFile(args[i+1], bytes.Repeat([]byte{0xCD}, r.size), 0o644)
		}
	}
	return nil
}

func espeakRequest() Request {
	return Request{Text: "hello there", Voice: "", Speed: "+0%", Format: "mp3"}
}

func TestEspeakSynthesizeWritesWav(t *testing.T) {
	cache := newTestCache(t)
	run := &stubRunner{size: MinValidBytes + 10}
	p := &EspeakProvider{cache: cache, bin: "espeak-ng", run: run}

	path, err := p.Synthesize(context.Background(), espeakRequest())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if run.runCalls != 1 {
		t.Errorf("engine ran %d times, want 1", run.runCalls)
	}
	want := cache.Path(FileName(CacheKey("hello there", "", "+0%"), "wav"))
	if path != want {
		t.Errorf("path = %q, want wav artifact %q", path, want)
	}
}

func TestEspeakReusesValidArtifact(t *testing.T) {
	cache := newTestCache(t)
	run := &stubRunner{size: MinValidBytes + 10}
	p := &EspeakProvider{cache: cache, bin: "espeak-ng", run: run}

	req := espeakRequest()
	seeded := bytes.Repeat([]byte{0xEE}, MinValidBytes+1)
	name := FileName(CacheKey(req.Text, req.Voice, req.Speed), "wav")
	if err := os.WriteFile(cache.Path(name), seeded, 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := p.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if run.runCalls != 0 {
		t.Errorf("engine ran %d times for a valid cached wav, want 0", run.runCalls)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, seeded) {
		t.Error("valid artifact was overwritten")
	}

	// Second call through the provider stays a reuse as well.
	if _, err := p.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("second Synthesize: %v", err)
	}
	if run.runCalls != 0 {
		t.Errorf("engine ran %d times on repeat, want 0", run.runCalls)
	}
}

func TestEspeakRerendersUndersizedArtifact(t *testing.T) {
	cache := newTestCache(t)
	run := &stubRunner{size: MinValidBytes + 10}
	p := &EspeakProvider{cache: cache, bin: "espeak-ng", run: run}

	req := espeakRequest()
	name := FileName(CacheKey(req.Text, req.Voice, req.Speed), "wav")
	if err := os.WriteFile(cache.Path(name), []byte("tiny"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if run.runCalls != 1 {
		t.Errorf("engine ran %d times, want 1 re-render for truncated artifact", run.runCalls)
	}
	if size := cache.SizeOf(cache.Path(name)); size < MinValidBytes {
		t.Errorf("artifact still undersized after re-render: %d", size)
	}
}
