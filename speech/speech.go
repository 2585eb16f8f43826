// Package speech defines the speech-to-text and text-to-speech contracts used
// by the request pipeline. Implementations live in sub-packages (openai,
// piper) and in provider/sarvam.
package speech

import (
	"context"
	"path/filepath"
	"strings"
)

// Transcriber converts recorded speech into text.
type Transcriber interface {
	// Transcribe returns the transcript of audio. filename carries the
	// original extension so providers can infer the container format.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Synthesizer converts text into speech.
type Synthesizer interface {
	// Synthesize renders text in language (a code such as "hi-IN").
	Synthesize(ctx context.Context, text, language string) (*Audio, error)
}

// Audio is a synthesized audio file.
type Audio struct {
	// Data holds the encoded file (MP3 or WAV).
	Data []byte
	// ContentType is the MIME type, e.g. "audio/mpeg".
	ContentType string
	// Extension is the file extension including the dot, e.g. ".mp3".
	Extension string
}

// ContentTypeFor returns the MIME type for an audio file name.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
