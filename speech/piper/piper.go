// Package piper implements speech.Synthesizer against a local Piper server
// speaking the Wyoming protocol (TCP, default port 10200).
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
package piper

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/lang"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/speech"
)

// defaultVoices maps language subtags to Piper voice model names.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"hi": "hi_IN-pratham-medium",
	"ml": "ml_IN-meera-medium",
	"te": "te_IN-maya-medium",
}

// Options configures a Synthesizer.
type Options struct {
	// Endpoint is host:port of the Piper Wyoming server.
	Endpoint string
	// Voices overrides or extends the language -> voice table.
	Voices      map[string]string
	DialTimeout time.Duration
	Logger      logging.Logger
}

// Synthesizer renders text through Piper and returns WAV audio.
type Synthesizer struct {
	endpoint string
	voices   map[string]string
	opts     Options
}

// New creates a Synthesizer.
func New(optFns ...func(o *Options)) *Synthesizer {
	opts := Options{
		Endpoint:    "localhost:10200",
		DialTimeout: 10 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	voices := make(map[string]string, len(defaultVoices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range opts.Voices {
		voices[lang.Subtag(k)] = v
	}

	endpoint := strings.TrimPrefix(opts.Endpoint, "tcp://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	return &Synthesizer{endpoint: endpoint, voices: voices, opts: opts}
}

// Voice returns the voice used for language, falling back to English.
func (s *Synthesizer) Voice(language string) string {
	if v := s.voices[lang.Subtag(language)]; v != "" {
		return v
	}
	return s.voices["en"]
}

// Synthesize sends text to Piper and wraps the returned PCM in a WAV container.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language string) (*speech.Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}
	voice := s.Voice(language)

	dialer := net.Dialer{Timeout: s.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	synth := event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, synth, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	var (
		pcm        bytes.Buffer
		sampleRate = 22050
		channels   = 1
		width      = 2
	)

	for {
		evt, payload, err := readEvent(conn)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			if v, ok := evt.Data["rate"].(float64); ok {
				sampleRate = int(v)
			}
			if v, ok := evt.Data["channels"].(float64); ok {
				channels = int(v)
			}
			if v, ok := evt.Data["width"].(float64); ok {
				width = int(v)
			}
		case "audio-chunk":
			pcm.Write(payload)
		case "audio-stop":
			s.opts.Logger.Debug("piper.synthesize.done", "voice", voice, "pcm_bytes", pcm.Len())
			return &speech.Audio{
				Data:        pcmToWAV(pcm.Bytes(), sampleRate, channels, width),
				ContentType: "audio/wav",
				Extension:   ".wav",
			}, nil
		case "error":
			msg := "unknown error"
			if t, ok := evt.Data["text"].(string); ok {
				msg = t
			}
			return nil, fmt.Errorf("piper error: %s", msg)
		}
	}
}

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func writeEvent(w io.Writer, evt event, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(body), len(payload))
	buf.Write(body)
	buf.WriteByte('\n')
	buf.Write(payload)

	_, err = w.Write(buf.Bytes())
	return err
}

func readEvent(r io.Reader) (*event, []byte, error) {
	header := make([]byte, 0, 64)
	one := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, one); err != nil {
			return nil, nil, fmt.Errorf("reading header: %w", err)
		}
		if one[0] == '\n' {
			break
		}
		header = append(header, one[0])
	}

	fields := strings.Fields(string(header))
	if len(fields) != 2 {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", header)
	}
	jsonLen, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, nil, fmt.Errorf("parsing json_length: %w", err)
	}
	payloadLen, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, nil, fmt.Errorf("parsing payload_length: %w", err)
	}

	body := make([]byte, jsonLen+1)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}

	var evt event
	if err := json.Unmarshal(body[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}

// pcmToWAV wraps 16-bit little endian PCM in a canonical 44-byte WAV header.
func pcmToWAV(pcm []byte, sampleRate, channels, bytesPerSample int) []byte {
	buf := &bytes.Buffer{}
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bytesPerSample*8))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
