// Package sarvam is a client for the Sarvam AI REST API: language
// identification, translation, speech-to-text and text-to-speech for Indian
// languages.
//
// The client satisfies lang.Detector, lang.Translator, speech.Transcriber and
// speech.Synthesizer.
package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/speech"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.sarvam.ai"

// Options configures a Client.
type Options struct {
	BaseURL string
	// TTSModel and Speaker select the voice for Synthesize.
	TTSModel string
	Speaker  string
	// STTModel selects the transcription model.
	STTModel   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client calls the Sarvam API with a subscription key.
type Client struct {
	apiKey string
	opts   Options
}

// New creates a Client.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:  DefaultBaseURL,
		TTSModel: "bulbul:v2",
		Speaker:  "anushka",
		STTModel: "saarika:v2.5",
		Timeout:  30 * time.Second,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{apiKey: apiKey, opts: opts}
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sarvam %s failed (status %d): %s", e.Endpoint, e.StatusCode, e.Body)
}

// DetectLanguage identifies the language of text and returns its code
// (e.g. "hi-IN").
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, error) {
	var out struct {
		LanguageCode string `json:"language_code"`
	}
	if err := c.postJSON(ctx, "/text-lid", map[string]any{"input": text}, &out); err != nil {
		return "", err
	}
	if out.LanguageCode == "" {
		return "", fmt.Errorf("sarvam text-lid returned no language")
	}
	return out.LanguageCode, nil
}

// Translate translates text from source to target. Input is expected to fit
// the per-request limit; chunking is the caller's concern.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	body := map[string]any{
		"input":                text,
		"source_language_code": source,
		"target_language_code": target,
	}
	if err := c.postJSON(ctx, "/translate", body, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.TranslatedText), nil
}

// Transcribe converts recorded speech into text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	_ = writer.WriteField("model", c.opts.STTModel)
	_ = writer.WriteField("language_code", "unknown")
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing form: %w", err)
	}

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := c.do(ctx, "/speech-to-text", writer.FormDataContentType(), body, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Transcript), nil
}

// Synthesize renders text as WAV audio in language.
func (c *Client) Synthesize(ctx context.Context, text, language string) (*speech.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	var out struct {
		Audios []string `json:"audios"`
	}
	body := map[string]any{
		"text":                 text,
		"target_language_code": language,
		"speaker":              c.opts.Speaker,
		"model":                c.opts.TTSModel,
	}
	if err := c.postJSON(ctx, "/text-to-speech", body, &out); err != nil {
		return nil, err
	}
	if len(out.Audios) == 0 {
		return nil, fmt.Errorf("sarvam text-to-speech returned no audio")
	}

	var wav []byte
	for i, a := range out.Audios {
		b, err := base64.StdEncoding.DecodeString(a)
		if err != nil {
			return nil, fmt.Errorf("decoding audio %d: %w", i, err)
		}
		wav = append(wav, b...)
	}

	return &speech.Audio{Data: wav, ContentType: "audio/wav", Extension: ".wav"}, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshalling %s request: %w", endpoint, err)
	}
	return c.do(ctx, endpoint, "application/json", bytes.NewReader(b), out)
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	req.Header.Set("api-subscription-key", c.apiKey)
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sarvam %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.opts.Logger.Debug("sarvam.request", "endpoint", endpoint, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}
