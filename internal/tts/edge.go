package tts

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// Edge speech service endpoint. The trusted client token is the public one
// the Edge browser ships with.
const (
	edgeWSSURL   = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	edgeToken    = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeOrigin   = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
	edgeDeadline = 30 * time.Second

	// The read-aloud endpoint only streams mp3; other containers are the
	// local engine's job.
	edgeOutputFormat = "audio-24khz-48kbitrate-mono-mp3"
)

// EdgeProvider renders speech through the Edge read-aloud websocket service.
// It is the primary remote engine: network or protocol errors and undersized
// output surface as errors so the coordinator can fall back.
type EdgeProvider struct {
	cache *Cache
}

func NewEdgeProvider(cache *Cache) *EdgeProvider {
	return &EdgeProvider{cache: cache}
}

func (p *EdgeProvider) Name() string { return "edge" }

func (p *EdgeProvider) Synthesize(ctx context.Context, req Request) (string, error) {
	out := p.cache.Path(FileName(CacheKey(req.Text, req.Voice, req.Speed), req.Format))

	ctx, cancel := context.WithTimeout(ctx, edgeDeadline)
	defer cancel()

	header := http.Header{}
	header.Set("Origin", edgeOrigin)

	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s",
		edgeWSSURL, edgeToken, strings.ReplaceAll(uuid.NewString(), "-", ""))
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return "", fmt.Errorf("edge dial (status %d): %w", resp.StatusCode, err)
		}
		return "", fmt.Errorf("edge dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	ts := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
	speechConfig := "X-Timestamp:" + ts + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + edgeOutputFormat + `"}}}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(speechConfig)); err != nil {
		return "", fmt.Errorf("edge speech.config: %w", err)
	}

	ssml := "X-RequestId:" + strings.ReplaceAll(uuid.NewString(), "-", "") + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + ts + "\r\n" +
		"Path:ssml\r\n\r\n" +
		buildSSML(req.Text, req.Voice, req.Speed)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssml)); err != nil {
		return "", fmt.Errorf("edge ssml: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	var written int64
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("edge read: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				if written < MinValidBytes {
					return "", fmt.Errorf("edge wrote undersized file (%d bytes)", written)
				}
				logx.Debug().Int64("bytes", written).Str("voice", req.Voice).Msg("edge synthesis complete")
				return out, nil
			}
		case websocket.BinaryMessage:
			audio, ok := extractAudio(data)
			if !ok {
				continue
			}
			n, err := f.Write(audio)
			if err != nil {
				return "", fmt.Errorf("write artifact: %w", err)
			}
			written += int64(n)
		}
	}
}

// extractAudio strips the binary frame header: the first two bytes are the
// big-endian header length, and only frames whose header names Path:audio
// carry payload.
func extractAudio(data []byte) ([]byte, bool) {
	if len(data) < 2 {
		return nil, false
	}
	headerLen := int(data[0])<<8 | int(data[1])
	if len(data) < 2+headerLen {
		return nil, false
	}
	header := data[2 : 2+headerLen]
	if !bytes.Contains(header, []byte("Path:audio")) {
		return nil, false
	}
	return data[2+headerLen:], true
}

func buildSSML(text, voice, speed string) string {
	return `<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>` +
		`<voice name='` + voice + `'>` +
		`<prosody pitch='+0Hz' rate='` + speed + `' volume='+0%'>` +
		escapeXML(text) +
		`</prosody></voice></speak>`
}

func escapeXML(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
		`"`, "&quot;",
	).Replace(s)
}

var _ Provider = (*EdgeProvider)(nil)
