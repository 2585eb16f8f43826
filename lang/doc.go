// Package lang provides the language envelope around the agent: detection of
// the user's language, chunked translation of answers back into it, and
// normalization of place names to English for data providers.
//
// Codes follow the provider convention "<subtag>-IN" (hi-IN, gu-IN, en-IN).
// Failures never surface to callers: the Normalizer falls back to the default
// language and the untranslated text.
package lang

// SupportedLanguages lists the language subtags the service accepts and
// renders answers in.
var SupportedLanguages = []string{"en", "hi", "gu", "bn", "te", "ta", "kn", "ml", "mr", "pa"}

// IsSupported reports whether code's primary subtag is in SupportedLanguages.
func IsSupported(code string) bool {
	sub := Subtag(code)
	for _, s := range SupportedLanguages {
		if s == sub {
			return true
		}
	}
	return false
}
