package speech

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nenegana-backend/internal/logger"
)

type GoogleConfig struct {
	LanguageCode    string
	SampleRateHertz int
	MaxRetries      int
}

// GoogleRecognizer transcribes short clips with Cloud Speech-to-Text
// synchronous recognition.
type GoogleRecognizer struct {
	client *gspeech.Client
	cfg    GoogleConfig
	log    *logger.Logger
}

func NewGoogleRecognizer(ctx context.Context, cfg GoogleConfig, log *logger.Logger) (*GoogleRecognizer, error) {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "ja-JP"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}

	c, err := gspeech.NewClient(ctx, clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return &GoogleRecognizer{
		client: c,
		cfg:    cfg,
		log:    log.With("service", "speech.GoogleRecognizer"),
	}, nil
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (g *GoogleRecognizer) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, audio Audio) (*Transcript, error) {
	req := &speechpb.RecognizeRequest{
		Config: buildRecognitionConfig(audio.MIMEType, g.cfg),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Content}},
	}

	resp, err := g.retry(ctx, func() (*speechpb.RecognizeResponse, error) {
		return g.client.Recognize(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}
	return parseRecognizeResponse(resp), nil
}

func buildRecognitionConfig(mimeType string, cfg GoogleConfig) *speechpb.RecognitionConfig {
	enc := inferEncoding(mimeType)
	rc := &speechpb.RecognitionConfig{
		Encoding:        enc,
		LanguageCode:    cfg.LanguageCode,
		MaxAlternatives: 1,
	}

	switch {
	case cfg.SampleRateHertz > 0:
		rc.SampleRateHertz = int32(cfg.SampleRateHertz)
	case enc == speechpb.RecognitionConfig_WEBM_OPUS || enc == speechpb.RecognitionConfig_OGG_OPUS:
		rc.SampleRateHertz = 48000
	}
	return rc
}

func inferEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))

	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3"), strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	case strings.Contains(m, "ogg"), strings.Contains(m, "opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// parseRecognizeResponse joins the top alternative of every result and
// averages their confidence.
func parseRecognizeResponse(resp *speechpb.RecognizeResponse) *Transcript {
	if resp == nil {
		return &Transcript{}
	}

	var parts []string
	var confSum float64
	var n int
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		text := strings.TrimSpace(alts[0].GetTranscript())
		if text == "" {
			continue
		}
		parts = append(parts, text)
		confSum += float64(alts[0].GetConfidence())
		n++
	}

	out := &Transcript{Text: strings.Join(parts, " ")}
	if n > 0 {
		out.Confidence = confSum / float64(n)
	}
	return out
}

func (g *GoogleRecognizer) retry(ctx context.Context, fn func() (*speechpb.RecognizeResponse, error)) (*speechpb.RecognizeResponse, error) {
	backoff := 200 * time.Millisecond
	var last error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted {
			return nil, err
		}
		if attempt == g.cfg.MaxRetries {
			break
		}
		g.log.Debug("retrying recognize", "attempt", attempt+1, "code", code.String())

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, last
}
