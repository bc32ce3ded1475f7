package textclean

// StopwordSource tells where a cleaner's stopword set came from.
type StopwordSource int

const (
	StopwordsNone     StopwordSource = iota // removal disabled or Fit not called
	StopwordsBuiltin                        // built-in list only
	StopwordsExtended                       // built-in list plus the extended corpus
)

func (s StopwordSource) String() string {
	switch s {
	case StopwordsBuiltin:
		return "builtin"
	case StopwordsExtended:
		return "extended"
	default:
		return "none"
	}
}

// MarshalText encodes the source by name.
func (s StopwordSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StemmerState tells whether a cleaner stems tokens.
type StemmerState int

const (
	StemmerOff         StemmerState = iota // stemming disabled or Fit not called
	StemmerReady                           // stemmer constructed
	StemmerUnavailable                     // construction failed, stemming skipped
)

func (s StemmerState) String() string {
	switch s {
	case StemmerReady:
		return "ready"
	case StemmerUnavailable:
		return "unavailable"
	default:
		return "off"
	}
}

// MarshalText encodes the state by name.
func (s StemmerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the outcome of Fit. Fallbacks never fail a transform; they are
// reported here instead.
type Status struct {
	Stopwords     StopwordSource `json:"stopwords"`
	StopwordCount int            `json:"stopword_count"`
	CorpusErr     error          `json:"-"`
	Stemmer       StemmerState   `json:"stemmer"`
	StemmerErr    error          `json:"-"`
}

// Degraded reports whether Fit fell back on any resource.
func (s Status) Degraded() bool {
	return s.CorpusErr != nil || s.Stemmer == StemmerUnavailable
}
