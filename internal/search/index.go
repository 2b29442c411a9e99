// Package search provides a deterministic, concurrency-safe in-memory index
// over catalog entries (title plus descriptive text such as details and tags).
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Unicode-aware tokenization with accent folding and optional stop words
//   - Immutable after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Query aliases for common abbreviations ("gta", "rdr", ...)
//
// Scoring uses Jaccard similarity between the query token set and each
// entry's token set, score = |Q ∩ D| / |Q ∪ D|, plus a boost for hits in
// the title and a larger one when the whole query appears in the title.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Document is one searchable catalog entry.
type Document struct {
	ID    int64
	Title string
	Text  string
}

// Result is a ranked entry with its score.
type Result struct {
	ID    int64
	Title string
	Score float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// DefaultAliases maps abbreviations players type to full titles.
var DefaultAliases = map[string]string{
	"gta":   "grand theft auto",
	"rdr":   "red dead redemption",
	"lol":   "league of legends",
	"gow":   "god of war",
	"zelda": "the legend of zelda",
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords  map[string]struct{}
	aliases    map[string]string
	maxDocs    int
	titleBoost float64
}

func defaultConfig() config {
	return config{
		aliases:    DefaultAliases,
		titleBoost: 0.5,
	}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithAliases replaces the alias table; nil disables alias expansion.
func WithAliases(aliases map[string]string) Option {
	return func(c *config) {
		c.aliases = aliases
	}
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

func WithTitleBoost(b float64) Option {
	return func(c *config) {
		if b >= 0 {
			c.titleBoost = b
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id          int64
	title       string
	foldedTitle string
	titleTokens map[string]struct{}
	tokens      map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over docs. Entries without any token are skipped.
func NewIndex(docs []Document, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for _, d := range docs {
		title := strings.TrimSpace(normalizeWhitespace(d.Title))
		titleToks := tokenize(title, cfg.stopwords)
		all := tokenize(title+" "+d.Text, cfg.stopwords)
		if len(all) == 0 {
			continue
		}
		out = append(out, doc{
			id:          d.ID,
			title:       title,
			foldedTitle: fold(title),
			titleTokens: titleToks,
			tokens:      all,
		})
		if cfg.maxDocs > 0 && len(out) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: out}
}

// TopK returns up to k best-matching entries. Aliases in the query are
// expanded before tokenization.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 5
	}
	q = ExpandAliases(q, i.cfg.aliases)
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)
	phrase := strings.Join(strings.Fields(fold(q)), " ")

	type scored struct {
		id    int64
		title string
		score float64
	}

	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		score := float64(over) / float64(qLen+len(d.tokens)-over)
		if th := overlap(qTokens, d.titleTokens); th > 0 {
			score += i.cfg.titleBoost * float64(th) / float64(qLen)
		}
		if phrase != "" && strings.Contains(d.foldedTitle, phrase) {
			score += 2 * i.cfg.titleBoost
		}
		buf = append(buf, scored{id: d.id, title: d.title, score: score})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		return buf[a].id < buf[b].id
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for j := 0; j < k; j++ {
		out[j] = Result{ID: buf[j].id, Title: buf[j].title, Score: buf[j].score}
	}
	return out
}

// ExpandAliases replaces every query word found in aliases with its
// expansion. Matching is case-insensitive; other words are kept as typed.
func ExpandAliases(q string, aliases map[string]string) string {
	if len(aliases) == 0 {
		return q
	}
	words := strings.Fields(q)
	for j, w := range words {
		if exp, ok := aliases[strings.ToLower(w)]; ok {
			words[j] = exp
		}
	}
	return strings.Join(words, " ")
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// fold lower-cases s and strips combining marks ("Épique" -> "epique").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
