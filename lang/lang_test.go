package lang

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDetector struct{ mock.Mock }

func (m *mockDetector) DetectLanguage(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type mockTranslator struct{ mock.Mock }

func (m *mockTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	args := m.Called(ctx, text, source, target)
	return args.String(0), args.Error(1)
}

// upperTranslator upper-cases every chunk and records the sizes it saw.
type upperTranslator struct{ sizes []int }

func (u *upperTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	u.sizes = append(u.sizes, utf8.RuneCountInString(text))
	return strings.ToUpper(text), nil
}

type fixedDetector string

func (f fixedDetector) DetectLanguage(context.Context, string) (string, error) { return string(f), nil }

func sentences(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s sentence number %d about the monsoon crop.", prefix, i)
	}
	return strings.Join(parts, " ")
}

// -------------------- chunking --------------------

func TestSplitChunks_ShortTextIsOneChunk(t *testing.T) {
	chunks := SplitChunks("hello\nworld", 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello\nworld", chunks[0].Text)
	assert.Equal(t, "", chunks[0].Sep)
}

func TestSplitChunks_PreservesParagraphsAndOrder(t *testing.T) {
	paragraphs := []string{
		strings.Repeat("a", 600),
		strings.Repeat("b", 600),
		"",
		sentences("long", 60),
		strings.Repeat("c", 10),
	}
	text := strings.Join(paragraphs, "\n")

	chunks := SplitChunks(text, 1000)
	require.Greater(t, len(chunks), 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 1000)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	joined := JoinChunks(chunks, texts)
	assert.Equal(t, text, joined)
	assert.Equal(t, len(paragraphs), len(strings.Split(joined, "\n")))
}

func TestSplitChunks_HardSplitsOversizedSentence(t *testing.T) {
	word := strings.Repeat("x", 30)
	long := strings.TrimSpace(strings.Repeat(word+" ", 100))

	chunks := SplitChunks(long, 100)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 100)
		assert.NotContains(t, c.Text, "\n")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	assert.Equal(t, long, JoinChunks(chunks, texts))
}

func TestSplitSentences_Danda(t *testing.T) {
	assert.Equal(t, []string{"मौसम अच्छा है।", "बारिश होगी।"}, splitSentences("मौसम अच्छा है। बारिश होगी।"))
	assert.Equal(t, []string{"Price is 3.5 per kg."}, splitSentences("Price is 3.5 per kg."))
}

// -------------------- normalizer --------------------

func TestNormalizer_TranslateChunked(t *testing.T) {
	tr := &upperTranslator{}
	n := NewNormalizer(fixedDetector("en-IN"), tr, func(o *Options) { o.MaxChunkChars = 200 })

	text := sentences("first", 10) + "\n\n" + sentences("second", 3)
	out, err := n.Translate(context.Background(), text, "en", "hi")
	require.NoError(t, err)

	assert.Equal(t, strings.Count(text, "\n"), strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "FIRST SENTENCE NUMBER 0"))
	assert.Contains(t, out, "SECOND SENTENCE NUMBER 2")
	require.NotEmpty(t, tr.sizes)
	for _, s := range tr.sizes {
		assert.LessOrEqual(t, s, 200)
		assert.Greater(t, s, 0)
	}
}

func TestNormalizer_TranslateSameLanguageIsNoop(t *testing.T) {
	tr := &mockTranslator{}
	n := NewNormalizer(fixedDetector("hi-IN"), tr)

	out, err := n.Translate(context.Background(), "namaste", "hi", "hi-IN")
	require.NoError(t, err)
	assert.Equal(t, "namaste", out)
	tr.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNormalizer_Localize(t *testing.T) {
	ctx := context.Background()

	det := &mockDetector{}
	det.On("DetectLanguage", ctx, "It is sunny in Surat.").Return("en-IN", nil)
	tr := &mockTranslator{}
	tr.On("Translate", ctx, "It is sunny in Surat.", "en-IN", "gu-IN").Return("સુરતમાં તડકો છે.", nil)

	n := NewNormalizer(det, tr)
	text, language := n.Localize(ctx, "It is sunny in Surat.", "gu")
	assert.Equal(t, "સુરતમાં તડકો છે.", text)
	assert.Equal(t, "gu-IN", language)
	tr.AssertExpectations(t)
}

func TestNormalizer_LocalizeFallsBackOnFailure(t *testing.T) {
	ctx := context.Background()

	det := &mockDetector{}
	det.On("DetectLanguage", ctx, "answer").Return("", errors.New("quota"))
	n := NewNormalizer(det, &mockTranslator{})

	text, language := n.Localize(ctx, "answer", "hi-IN")
	assert.Equal(t, "answer", text)
	assert.Equal(t, "en-IN", language)

	det2 := &mockDetector{}
	det2.On("DetectLanguage", ctx, "answer").Return("en", nil)
	tr := &mockTranslator{}
	tr.On("Translate", ctx, "answer", "en-IN", "hi-IN").Return("", errors.New("503"))
	n = NewNormalizer(det2, tr)

	text, language = n.Localize(ctx, "answer", "hi-IN")
	assert.Equal(t, "answer", text)
	assert.Equal(t, "en-IN", language)
}

func TestNormalizer_DetectUserLanguage(t *testing.T) {
	ctx := context.Background()
	det := &mockDetector{}
	det.On("DetectLanguage", ctx, "kem cho").Return("gu", nil)
	det.On("DetectLanguage", ctx, "???").Return("", errors.New("boom"))
	n := NewNormalizer(det, &mockTranslator{})

	assert.Equal(t, "gu-IN", n.DetectUserLanguage(ctx, "kem cho"))
	assert.Equal(t, "en-IN", n.DetectUserLanguage(ctx, "???"))
	assert.Equal(t, "en-IN", n.DetectUserLanguage(ctx, "  "))
}

func TestNormalizer_ResolveTarget(t *testing.T) {
	n := NewNormalizer(fixedDetector("en"), &mockTranslator{})

	assert.Equal(t, "hi-IN", n.ResolveTarget("hi-IN", []string{"en-IN", "hi-IN"}))
	assert.Equal(t, "en-IN", n.ResolveTarget("ta-IN", []string{"en", "hi"}))
	assert.Equal(t, "ta-IN", n.ResolveTarget("ta-IN", nil))
	assert.Equal(t, "ta-IN", n.ResolveTarget("ta", []string{" ", ""}))
}

func TestNormalizer_NormalizeLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("english is a no-op", func(t *testing.T) {
		det := &mockDetector{}
		tr := &mockTranslator{}
		n := NewNormalizer(det, tr)

		assert.Equal(t, "Surat", n.NormalizeLocation(ctx, " Surat "))
		assert.Equal(t, "São Paulo", n.NormalizeLocation(ctx, "São Paulo"))
		det.AssertNotCalled(t, "DetectLanguage", mock.Anything, mock.Anything)
		tr.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("translates and strips punctuation", func(t *testing.T) {
		det := &mockDetector{}
		det.On("DetectLanguage", ctx, "सूरत").Return("hi-IN", nil)
		tr := &mockTranslator{}
		tr.On("Translate", ctx, "सूरत", "hi-IN", "en-IN").Return(" Surat. ", nil)
		n := NewNormalizer(det, tr)

		assert.Equal(t, "Surat", n.NormalizeLocation(ctx, "सूरत"))
	})

	t.Run("failure returns original", func(t *testing.T) {
		det := &mockDetector{}
		det.On("DetectLanguage", ctx, "अमरेली").Return("hi-IN", nil)
		tr := &mockTranslator{}
		tr.On("Translate", ctx, "अमरेली", "hi-IN", "en-IN").Return("", errors.New("down"))
		n := NewNormalizer(det, tr)

		assert.Equal(t, "अमरेली", n.NormalizeLocation(ctx, "अमरेली"))
	})
}

func TestCodes(t *testing.T) {
	assert.Equal(t, "hi-IN", FormatCode("hi", "IN"))
	assert.Equal(t, "en-IN", FormatCode("EN_in", "IN"))
	assert.Equal(t, "en", FormatCode("en", ""))
	assert.Equal(t, "", FormatCode(" ", "IN"))
	assert.Equal(t, "gu", Subtag("gu-IN"))
	assert.True(t, IsSupported("ml-IN"))
	assert.False(t, IsSupported("fr"))
	assert.True(t, IsNonEnglish("सूरत"))
	assert.False(t, IsNonEnglish("Surat, Gujarat"))
}
