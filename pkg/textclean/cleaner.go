// Package textclean normalizes raw review text into space-joined tokens:
// lowercase, strip punctuation and digits, drop short tokens and stopwords,
// optionally stem.
package textclean

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Language is the only stopword language the cleaner requests.
const Language = "english"

// Options configure a Cleaner. They are fixed at construction.
type Options struct {
	Lowercase       bool `yaml:"lowercase" json:"lowercase"`
	RemovePunctNum  bool `yaml:"remove_punct_num" json:"remove_punct_num"`
	RemoveStopwords bool `yaml:"remove_stopwords" json:"remove_stopwords"`
	UseStemming     bool `yaml:"use_stemming" json:"use_stemming"`
	MinWordLen      int  `yaml:"min_word_len" json:"min_word_len"`
}

// DefaultOptions lowercases, strips punctuation and digits, removes
// stopwords, does not stem, and keeps tokens of two or more characters.
func DefaultOptions() Options {
	return Options{
		Lowercase:       true,
		RemovePunctNum:  true,
		RemoveStopwords: true,
		UseStemming:     false,
		MinWordLen:      2,
	}
}

// Transformer is the fit/transform contract of a text pipeline stage.
type Transformer interface {
	FitTransform(ctx context.Context, texts []*string) []string
	Transform(texts []*string) []string
}

var _ Transformer = (*Cleaner)(nil)

// Option customizes a Cleaner's collaborators.
type Option func(*Cleaner)

// WithCorpus sets the extended stopword source. Without one, only the
// built-in list is used.
func WithCorpus(src WordSource) Option {
	return func(c *Cleaner) { c.corpus = src }
}

// WithStemmer replaces the Snowball stemmer factory.
func WithStemmer(f StemmerFactory) Option {
	return func(c *Cleaner) { c.newStemmer = f }
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) { c.logger = l }
}

// Cleaner is a configurable text normalization stage. Fit initializes the
// stopword set and stemmer once; Transform is pure given those.
// A Cleaner is not safe for concurrent Fit calls.
type Cleaner struct {
	opts       Options
	corpus     WordSource
	newStemmer StemmerFactory
	logger     *slog.Logger

	stopwords    map[string]struct{}
	stemmer      Stemmer
	stemmerTried bool
	status       Status
}

// New creates a Cleaner. Fit must be called before Transform for stopword
// removal and stemming to take effect.
func New(opts Options, options ...Option) *Cleaner {
	c := &Cleaner{
		opts:       opts,
		newStemmer: NewSnowballStemmer,
		logger:     slog.Default(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Options returns the cleaner's configuration.
func (c *Cleaner) Options() Options {
	return c.opts
}

// Status reports how Fit resolved the stopword set and stemmer.
func (c *Cleaner) Status() Status {
	return c.status
}

// Fit builds the stopword set and stemmer if they are enabled and not yet
// built. A corpus failure falls back to the built-in list; a stemmer
// failure disables stemming. texts is unused. Fit returns c.
func (c *Cleaner) Fit(ctx context.Context, texts []*string) *Cleaner {
	if c.opts.RemoveStopwords && c.stopwords == nil {
		c.buildStopwords(ctx)
	}
	if c.opts.UseStemming && !c.stemmerTried {
		c.buildStemmer()
	}
	return c
}

func (c *Cleaner) buildStopwords(ctx context.Context) {
	set := BuiltinStopwords()
	source := StopwordsBuiltin

	if c.corpus != nil {
		words, err := c.corpus.Words(ctx, Language)
		if err != nil {
			c.status.CorpusErr = err
			c.logger.Warn("stopword corpus unavailable, using built-in list", "error", err)
		} else {
			added := mergeWords(set, words)
			source = StopwordsExtended
			c.logger.Debug("stopword corpus merged", "words", len(words), "added", added)
		}
	}

	c.stopwords = set
	c.status.Stopwords = source
	c.status.StopwordCount = len(set)
}

func (c *Cleaner) buildStemmer() {
	c.stemmerTried = true
	if c.newStemmer == nil {
		c.status.Stemmer = StemmerUnavailable
		return
	}
	s, err := c.newStemmer()
	if err != nil || s == nil {
		c.status.Stemmer = StemmerUnavailable
		c.status.StemmerErr = err
		c.logger.Warn("stemmer unavailable, stemming disabled", "error", err)
		return
	}
	c.stemmer = s
	c.status.Stemmer = StemmerReady
}

// Transform cleans every entry. Nil entries become "". The result has the
// same length and order as texts.
func (c *Cleaner) Transform(texts []*string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		if t == nil {
			continue
		}
		out[i] = c.clean(*t)
	}
	return out
}

// FitTransform calls Fit then Transform.
func (c *Cleaner) FitTransform(ctx context.Context, texts []*string) []string {
	return c.Fit(ctx, texts).Transform(texts)
}

// CleanString cleans a single value.
func (c *Cleaner) CleanString(s string) string {
	return c.clean(s)
}

func (c *Cleaner) clean(t string) string {
	if c.opts.Lowercase {
		t = strings.ToLower(t)
	}
	if c.opts.RemovePunctNum {
		t = strings.Map(keepLetterOrSpace, t)
	}

	// strings.Fields collapses whitespace runs and trims.
	fields := strings.Fields(t)
	toks := fields[:0]
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) < c.opts.MinWordLen {
			continue
		}
		// Matching is verbatim: with lowercasing off, "The" is not a stopword.
		if c.opts.RemoveStopwords && len(c.stopwords) > 0 {
			if _, stop := c.stopwords[tok]; stop {
				continue
			}
		}
		if c.opts.UseStemming && c.stemmer != nil {
			tok = c.stemmer.Stem(tok)
		}
		toks = append(toks, tok)
	}
	return strings.Join(toks, " ")
}

func keepLetterOrSpace(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsSpace(r) {
		return r
	}
	return ' '
}

// Strings converts plain values to the optional form Transform takes.
func Strings(values []string) []*string {
	out := make([]*string, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}
