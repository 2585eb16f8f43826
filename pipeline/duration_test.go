package pipeline

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wav builds a 16-bit mono PCM file of the given length, optionally with an
// extra chunk between fmt and data.
func wav(t *testing.T, seconds float64, extra bool) []byte {
	t.Helper()
	const sampleRate = 8000
	pcm := make([]byte, int(seconds*sampleRate)*2)

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint32(16)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint16(1)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint16(1)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint32(sampleRate)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint32(sampleRate*2)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint16(2)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint16(16)))
	if extra {
		body.WriteString("LIST")
		require.NoError(t, binary.Write(&body, binary.LittleEndian, uint32(3)))
		body.Write([]byte{'a', 'b', 'c', 0})
	}
	body.WriteString("data")
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint32(len(pcm))))
	body.Write(pcm)

	var out bytes.Buffer
	out.WriteString("RIFF")
	require.NoError(t, binary.Write(&out, binary.LittleEndian, uint32(body.Len())))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestAudioDuration_WAV(t *testing.T) {
	d, err := AudioDuration(wav(t, 2.5, false), ".wav")
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d)

	d, err = AudioDuration(wav(t, 1, true), ".WAV")
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}

func TestAudioDuration_StreamedWAVUsesRemainingBytes(t *testing.T) {
	data := wav(t, 1, false)
	// data chunk size sits right before the PCM payload
	binary.LittleEndian.PutUint32(data[40:44], 0xFFFFFFFF)

	d, err := AudioDuration(data, ".wav")
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}

func TestAudioDuration_Unknown(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		ext  string
	}{
		{name: "not riff", data: []byte("ID3 not a wav file"), ext: ".wav"},
		{name: "no data chunk", data: wav(t, 1, false)[:36], ext: ".wav"},
		{name: "garbage mp3", data: []byte("definitely not mpeg audio"), ext: ".mp3"},
		{name: "empty mp3", data: nil, ext: ".mp3"},
		{name: "unsupported", data: []byte("x"), ext: ".ogg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AudioDuration(tt.data, tt.ext)
			assert.ErrorIs(t, err, ErrUnknownDuration)
		})
	}
}
