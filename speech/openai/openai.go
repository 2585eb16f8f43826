// Package openai implements speech.Transcriber and speech.Synthesizer with
// the OpenAI audio APIs (Whisper transcription and TTS).
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/speech"
)

// Options configures the OpenAI speech adapter.
type Options struct {
	TranscriptionModel string
	SpeechModel        string
	Voice              string
	APIKey             string
	BaseURL            string
	Logger             logging.Logger
}

// Speech talks to the OpenAI audio endpoints.
type Speech struct {
	client *openai.Client
	opts   Options
}

// New creates the adapter. The API key is required.
func New(optFns ...func(o *Options)) *Speech {
	opts := Options{
		TranscriptionModel: openai.Whisper1,
		SpeechModel:        string(openai.TTSModel1),
		Voice:              string(openai.VoiceAlloy),
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Speech{client: openai.NewClientWithConfig(cfg), opts: opts}
}

// Transcribe sends audio to the transcription endpoint.
func (s *Speech) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if filename == "" {
		filename = "audio.wav"
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.opts.TranscriptionModel,
		FilePath: filepath.Base(filename),
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	s.opts.Logger.Debug("speech.transcribe.done", "model", s.opts.TranscriptionModel, "text_length", len(resp.Text))

	return resp.Text, nil
}

// Synthesize renders text as MP3. The voice is multilingual, so language
// only feeds logging.
func (s *Speech) Synthesize(ctx context.Context, text, language string) (*speech.Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.opts.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(s.opts.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading speech audio: %w", err)
	}

	s.opts.Logger.Debug("speech.synthesize.done", "model", s.opts.SpeechModel, "language", language, "bytes", len(data))

	return &speech.Audio{Data: data, ContentType: "audio/mpeg", Extension: ".mp3"}, nil
}
