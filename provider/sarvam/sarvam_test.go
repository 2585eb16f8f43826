package sarvam

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agrimesh/lang"
	"github.com/hupe1980/agrimesh/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ lang.Detector      = (*Client)(nil)
	_ lang.Translator    = (*Client)(nil)
	_ speech.Transcriber = (*Client)(nil)
	_ speech.Synthesizer = (*Client)(nil)
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New("sub-key", func(o *Options) { o.BaseURL = srv.URL + "/" })
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
	return m
}

func TestDetectLanguage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /text-lid", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sub-key", r.Header.Get("api-subscription-key"))
		assert.Equal(t, "સુરત હવામાન", decodeBody(t, r)["input"])
		_, _ = w.Write([]byte(`{"request_id":"1","language_code":"gu-IN","script_code":"Gujr"}`))
	})

	code, err := newTestClient(t, mux).DetectLanguage(context.Background(), "સુરત હવામાન")
	require.NoError(t, err)
	assert.Equal(t, "gu-IN", code)
}

func TestTranslate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /translate", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "hi-IN", body["source_language_code"])
		assert.Equal(t, "en-IN", body["target_language_code"])
		_, _ = w.Write([]byte(`{"translated_text":" Surat "}`))
	})

	out, err := newTestClient(t, mux).Translate(context.Background(), "सूरत", "hi-IN", "en-IN")
	require.NoError(t, err)
	assert.Equal(t, "Surat", out)
}

func TestTranscribe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /speech-to-text", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "clip.wav", header.Filename)
		assert.Equal(t, []byte("RIFF"), data)
		assert.Equal(t, "saarika:v2.5", r.FormValue("model"))
		_, _ = w.Write([]byte(`{"transcript":"surat ma havaman kevu che","language_code":"gu-IN"}`))
	})

	text, err := newTestClient(t, mux).Transcribe(context.Background(), []byte("RIFF"), "clip.wav")
	require.NoError(t, err)
	assert.Equal(t, "surat ma havaman kevu che", text)
}

func TestSynthesize(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /text-to-speech", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "bulbul:v2", body["model"])
		assert.Equal(t, "anushka", body["speaker"])
		assert.Equal(t, "hi-IN", body["target_language_code"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"audios": []string{base64.StdEncoding.EncodeToString([]byte("wav-bytes"))},
		})
	})

	audio, err := newTestClient(t, mux).Synthesize(context.Background(), "नमस्ते", "hi-IN")
	require.NoError(t, err)
	assert.Equal(t, []byte("wav-bytes"), audio.Data)
	assert.Equal(t, ".wav", audio.Extension)
}

func TestAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /translate", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := newTestClient(t, mux).Translate(context.Background(), "x", "hi-IN", "en-IN")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "/translate", apiErr.Endpoint)
}
