// Package textpool supplies race texts from a static pool.
package textpool

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

var (
	nonLetters = regexp.MustCompile(`[^a-zA-Z\s]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Clean keeps only ASCII letters and whitespace, collapses whitespace runs
// into single spaces and trims the result.
func Clean(text string) string {
	text = nonLetters.ReplaceAllString(text, "")
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var defaultTexts = []string{
	"The quick brown fox jumps over the lazy dog. This sentence contains every letter of the alphabet at least once.",
	"Typing faster requires focus, rhythm, and consistent practice. The more you type, the better you become.",
	"Code, type, repeat — the way to mastery is repetition. Every keystroke brings you closer to perfection.",
	"Programming is an art form that combines logic and creativity. Developers create digital worlds with their keyboards.",
	"The internet connects millions of people worldwide through the power of technology and communication.",
	"Practice makes perfect when it comes to typing speed and accuracy. Consistency is the key to improvement.",
	"Modern web development involves many technologies working together to create seamless user experiences.",
	"Open source software has revolutionized the way we build and share code across the globe.",
	"Learning to code opens doors to endless possibilities in the digital age we live in today.",
	"The best way to predict the future is to invent it through innovation and hard work.",
}

// Pool hands out cleaned texts. It is immutable after construction and safe
// for concurrent use.
type Pool struct {
	texts []string
}

// New cleans every text once. Texts that are empty after cleaning are skipped.
func New(texts []string) *Pool {
	p := &Pool{texts: make([]string, 0, len(texts))}
	for _, t := range texts {
		if c := Clean(t); c != "" {
			p.texts = append(p.texts, c)
		}
	}
	return p
}

func Default() *Pool {
	return New(defaultTexts)
}

// Text returns a random text from the pool, or "" if the pool is empty.
func (p *Pool) Text() string {
	if len(p.texts) == 0 {
		return ""
	}
	return p.texts[rand.IntN(len(p.texts))]
}

func (p *Pool) Len() int {
	return len(p.texts)
}
