// Package chunk splits oversized content into sentence-respecting pieces
// and deterministically merges the per-chunk summary documents back into
// one.
package chunk

import (
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/pemistahl/lingua-go"
	"go.uber.org/zap"
)

// Splitter segments text into sentences and greedily packs them into chunks
// under a character budget. Segmentation is language-aware: the input
// language is detected and a trained sentence model is used when one is
// available, with a punctuation fallback otherwise.
type Splitter struct {
	detector lingua.LanguageDetector
	english  *sentences.DefaultSentenceTokenizer
}

// NewSplitter builds a splitter with a language detector over the languages
// the pipeline commonly sees. Tokenizer training data is loaded once here,
// not per call.
func NewSplitter() *Splitter {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.Spanish,
			lingua.French,
			lingua.German,
			lingua.Portuguese,
			lingua.Russian,
		).
		Build()

	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		// Loading embedded training data only fails on a corrupt build;
		// the punctuation fallback still produces usable chunks.
		zap.L().Warn("chunk: english sentence model unavailable", zap.Error(err))
		tok = nil
	}

	return &Splitter{detector: detector, english: tok}
}

// Split breaks text into ordered chunks of at most maxChars characters,
// never splitting a sentence. A single sentence longer than maxChars becomes
// its own oversized chunk. Empty input yields no chunks.
func (s *Splitter) Split(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	// Budget in characters, not bytes, so multi-byte scripts pack the same.
	var chunks []string
	var current strings.Builder
	currentRunes := 0
	for _, sent := range s.sentences(text) {
		sentRunes := utf8.RuneCountInString(sent)
		if currentRunes > 0 && currentRunes+1+sentRunes > maxChars {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentRunes = 0
		}
		if currentRunes > 0 {
			current.WriteByte(' ')
			currentRunes++
		}
		current.WriteString(sent)
		currentRunes += sentRunes
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// DetectLanguage returns the lowercase ISO 639-1 code of the detected
// language, or "" when detection is inconclusive.
func (s *Splitter) DetectLanguage(text string) string {
	lang, ok := s.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

// sentences segments text using the trained model for the detected language
// when available, else the punctuation fallback.
func (s *Splitter) sentences(text string) []string {
	lang, ok := s.detector.DetectLanguageOf(text)
	if ok && lang == lingua.English && s.english != nil {
		toks := s.english.Tokenize(text)
		out := make([]string, 0, len(toks))
		for _, t := range toks {
			if sent := strings.TrimSpace(t.Text); sent != "" {
				out = append(out, sent)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return splitSentencesRegex(text)
}

// splitSentencesRegex is the language-agnostic fallback: cut after runs of
// terminal punctuation (plus closing quotes/brackets) followed by
// whitespace. Trailing text without terminal punctuation forms the last
// sentence.
func splitSentencesRegex(text string) []string {
	var out []string
	var current strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if !isSentenceEnd(r) {
			continue
		}
		// Absorb closing quotes/brackets and further terminal marks.
		j := i + 1
		for j < len(runes) && (isSentenceEnd(runes[j]) || isClosing(runes[j])) {
			current.WriteRune(runes[j])
			j++
		}
		if j >= len(runes) || isSpace(runes[j]) {
			if sent := strings.TrimSpace(current.String()); sent != "" {
				out = append(out, sent)
			}
			current.Reset()
		}
		i = j - 1
	}
	if sent := strings.TrimSpace(current.String()); sent != "" {
		out = append(out, sent)
	}
	return out
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '»', '”', '’':
		return true
	}
	return false
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
