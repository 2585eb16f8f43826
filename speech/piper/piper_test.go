package piper

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"

	"github.com/hupe1980/agrimesh/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ speech.Synthesizer = (*Synthesizer)(nil)

// fakePiper accepts one connection, records the synthesize event and replies
// with the given events.
func fakePiper(t *testing.T, reply func(conn net.Conn)) (string, <-chan *event) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan *event, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		evt, _, err := readEvent(conn)
		if err != nil {
			return
		}
		got <- evt
		reply(conn)
	}()
	return ln.Addr().String(), got
}

func TestSynthesize(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	addr, got := fakePiper(t, func(conn net.Conn) {
		_ = writeEvent(conn, event{Type: "audio-start", Data: map[string]any{"rate": 16000, "channels": 1, "width": 2}}, nil)
		_ = writeEvent(conn, event{Type: "audio-chunk"}, pcm[:4])
		_ = writeEvent(conn, event{Type: "audio-chunk"}, pcm[4:])
		_ = writeEvent(conn, event{Type: "audio-stop"}, nil)
	})

	s := New(func(o *Options) { o.Endpoint = "tcp://" + addr })
	audio, err := s.Synthesize(context.Background(), "नमस्ते", "hi-IN")
	require.NoError(t, err)

	evt := <-got
	assert.Equal(t, "synthesize", evt.Type)
	assert.Equal(t, "नमस्ते", evt.Data["text"])
	assert.Equal(t, "hi_IN-pratham-medium", evt.Data["voice"].(map[string]any)["name"])

	require.Len(t, audio.Data, 44+len(pcm))
	assert.Equal(t, "RIFF", string(audio.Data[:4]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(audio.Data[24:28]))
	assert.True(t, bytes.HasSuffix(audio.Data, pcm))
	assert.Equal(t, ".wav", audio.Extension)
}

func TestSynthesize_ServerError(t *testing.T) {
	addr, _ := fakePiper(t, func(conn net.Conn) {
		_ = writeEvent(conn, event{Type: "error", Data: map[string]any{"text": "voice not found"}}, nil)
	})

	_, err := New(func(o *Options) { o.Endpoint = addr }).Synthesize(context.Background(), "hello", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voice not found")
}

func TestVoice(t *testing.T) {
	s := New(func(o *Options) { o.Voices = map[string]string{"gu-IN": "gu_custom"} })
	assert.Equal(t, "gu_custom", s.Voice("gu"))
	assert.Equal(t, "en_US-lessac-medium", s.Voice("ta-IN"))
}
