package main

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/agrimesh"
	"github.com/hupe1980/agrimesh/artifact"
	"github.com/hupe1980/agrimesh/config"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/model"
	anthropicmodel "github.com/hupe1980/agrimesh/model/anthropic"
	geminimodel "github.com/hupe1980/agrimesh/model/gemini"
	openaimodel "github.com/hupe1980/agrimesh/model/openai"
	"github.com/hupe1980/agrimesh/provider/agmarknet"
	"github.com/hupe1980/agrimesh/provider/openweather"
	"github.com/hupe1980/agrimesh/provider/sarvam"
	"github.com/hupe1980/agrimesh/session"
	"github.com/hupe1980/agrimesh/speech"
	openaispeech "github.com/hupe1980/agrimesh/speech/openai"
	"github.com/hupe1980/agrimesh/speech/piper"
)

// app is the wired chatbot plus the resources the caller must release.
type app struct {
	mesh      *agrimesh.Mesh
	artifacts *artifact.FileStore
	sessions  *session.InMemoryStore
}

func (a *app) Close() { a.sessions.Close() }

func newApp(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger) (*app, error) {
	m, err := newModel(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	sarvamClient := sarvam.New(cfg.Sarvam.APIKey, func(o *sarvam.Options) {
		o.BaseURL = cfg.Sarvam.BaseURL
		o.TTSModel = cfg.Sarvam.TTSModel
		o.Speaker = cfg.Sarvam.Speaker
		o.STTModel = cfg.Sarvam.STTModel
		o.Timeout = cfg.Sarvam.Timeout
		o.Logger = logger.WithComponent("sarvam")
	})

	weather := openweather.New(cfg.Weather.APIKey, func(o *openweather.Options) {
		o.BaseURL = cfg.Weather.BaseURL
		o.Units = cfg.Weather.Units
		o.Timeout = cfg.Weather.Timeout
		o.Logger = logger.WithComponent("openweather")
	})

	prices := agmarknet.New(cfg.Agriculture.APIKey, func(o *agmarknet.Options) {
		o.BaseURL = cfg.Agriculture.BaseURL
		o.MaxRecords = cfg.Agriculture.MaxRecords
		o.Timeout = cfg.Agriculture.Timeout
		o.Logger = logger.WithComponent("agmarknet")
	})

	transcriber, synthesizer, err := newSpeech(cfg, sarvamClient, logger)
	if err != nil {
		return nil, err
	}

	artifacts, err := artifact.NewFileStore(cfg.Server.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open output directory: %w", err)
	}

	sessions := session.NewInMemoryStore(func(o *session.Options) {
		o.TTL = cfg.Session.TTL
		o.SweepInterval = cfg.Session.SweepInterval
		o.Logger = logger.WithComponent("session")
	})

	mesh, err := agrimesh.New(m, agrimesh.Providers{
		Weather:    weather,
		Geocoder:   weather,
		Prices:     prices,
		Detector:   sarvamClient,
		Translator: sarvamClient,
	}, func(o *agrimesh.Options) {
		o.Planner = cfg.Agent.Planner
		o.MaxToolCalls = cfg.Agent.MaxToolCalls
		o.TurnTimeout = cfg.Agent.TurnTimeout
		o.MaxHistory = cfg.Agent.MaxHistory
		o.SessionStore = sessions
		o.Artifacts = artifacts
		o.Transcriber = transcriber
		o.Synthesizer = synthesizer
		o.MaxAudioDuration = cfg.Server.MaxAudioDuration()
		o.AllowedFormats = cfg.Server.AllowedAudioFormats
		o.DefaultLanguage = cfg.Language.DefaultLanguage
		o.MaxChunkChars = cfg.Language.MaxChunkChars
		o.Logger = logger.WithComponent("agent")
	})
	if err != nil {
		sessions.Close()
		return nil, err
	}

	return &app{mesh: mesh, artifacts: artifacts, sessions: sessions}, nil
}

func newModel(ctx context.Context, cfg config.LLMConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
			o.APIKey = cfg.APIKey
		}), nil
	case "gemini":
		m, err := geminimodel.NewModel(ctx, func(o *geminimodel.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = float32(cfg.Temperature)
			o.MaxOutputTokens = int32(cfg.MaxTokens)
			o.APIKey = cfg.APIKey
			o.Project = cfg.Project
			o.Location = cfg.Location
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newSpeech(cfg *config.Config, sarvamClient *sarvam.Client, logger *logging.StructuredLogger) (speech.Transcriber, speech.Synthesizer, error) {
	var openaiSpeech *openaispeech.Speech
	if cfg.Speech.STT == "openai" || cfg.Speech.TTS == "openai" {
		openaiSpeech = openaispeech.New(func(o *openaispeech.Options) {
			o.APIKey = cfg.Speech.OpenAI.APIKey
			o.BaseURL = cfg.Speech.OpenAI.BaseURL
			o.TranscriptionModel = cfg.Speech.OpenAI.TranscriptionModel
			o.SpeechModel = cfg.Speech.OpenAI.SpeechModel
			o.Voice = cfg.Speech.OpenAI.Voice
			o.Logger = logger.WithComponent("openai_speech")
		})
	}

	var transcriber speech.Transcriber
	switch cfg.Speech.STT {
	case "sarvam":
		transcriber = sarvamClient
	case "openai":
		transcriber = openaiSpeech
	default:
		return nil, nil, fmt.Errorf("unknown speech-to-text backend %q", cfg.Speech.STT)
	}

	var synthesizer speech.Synthesizer
	switch cfg.Speech.TTS {
	case "sarvam":
		synthesizer = sarvamClient
	case "openai":
		synthesizer = openaiSpeech
	case "piper":
		synthesizer = piper.New(func(o *piper.Options) {
			o.Endpoint = cfg.Speech.Piper.Endpoint
			o.Voices = cfg.Speech.Piper.Voices
			o.Logger = logger.WithComponent("piper")
		})
	case "none":
	default:
		return nil, nil, fmt.Errorf("unknown text-to-speech backend %q", cfg.Speech.TTS)
	}

	return transcriber, synthesizer, nil
}
