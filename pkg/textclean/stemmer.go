package textclean

import "github.com/kljensen/snowball/english"

// Stemmer reduces a word to its root form.
type Stemmer interface {
	Stem(word string) string
}

// StemmerFactory builds a Stemmer. A returned error disables stemming for
// the cleaner that called it.
type StemmerFactory func() (Stemmer, error)

type snowballStemmer struct{}

// Stem applies the Snowball English (Porter2) algorithm. The result is
// lowercase; stopwords are stemmed like any other word.
func (snowballStemmer) Stem(word string) string {
	return english.Stem(word, true)
}

// NewSnowballStemmer is the default StemmerFactory.
func NewSnowballStemmer() (Stemmer, error) {
	return snowballStemmer{}, nil
}
