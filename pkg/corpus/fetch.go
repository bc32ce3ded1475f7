package corpus

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultName is the cache key of the stopword corpus.
	DefaultName = "stopwords"
	// DefaultURL is the NLTK stopwords package.
	DefaultURL = "https://raw.githubusercontent.com/nltk/nltk_data/gh-pages/packages/corpora/stopwords.zip"

	maxCorpusSize = 32 << 20
	maxAttempts   = 3

	// DefaultRetryAfter is how long a failed download is remembered before
	// the next call tries the network again.
	DefaultRetryAfter = 10 * time.Minute
)

// Fetcher serves stopword lists, downloading and caching on first use.
// Lists are kept in memory once loaded, and a failed download is replayed
// to callers until the retry delay has passed, so a process fetches each
// language at most once per delay. It satisfies textclean.WordSource.
type Fetcher struct {
	store      *Store
	name       string
	url        string
	client     *http.Client
	logger     *slog.Logger
	backoff    time.Duration
	retryAfter time.Duration
	now        func() time.Time

	// mu is held across downloads so concurrent callers share one fetch.
	mu       sync.Mutex
	loaded   map[string][]string
	failures map[string]failure
}

type failure struct {
	err error
	at  time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithBackoff sets the wait before the first retry; later retries double it.
func WithBackoff(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.backoff = d }
}

// WithRetryAfter sets how long a failed download is remembered.
func WithRetryAfter(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.retryAfter = d }
}

// NewFetcher creates a Fetcher for the corpus at url. store may be nil, in
// which case lists only live in memory.
func NewFetcher(store *Store, url string, logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fetcher{
		store:      store,
		name:       DefaultName,
		url:        url,
		client:     &http.Client{Timeout: 2 * time.Minute},
		logger:     logger,
		backoff:    time.Second,
		retryAfter: DefaultRetryAfter,
		now:        time.Now,
		loaded:     make(map[string][]string),
		failures:   make(map[string]failure),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Words returns the word list for language: from memory, then the cache,
// then the network. Within the retry delay after a failed download the
// same error is returned without contacting the network.
func (f *Fetcher) Words(ctx context.Context, language string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if words, ok := f.loaded[language]; ok {
		return words, nil
	}
	if fl, ok := f.failures[language]; ok && f.now().Sub(fl.at) < f.retryAfter {
		return nil, fmt.Errorf("corpus %s/%s unavailable (retry after %s): %w",
			f.name, language, fl.at.Add(f.retryAfter).Format(time.RFC3339), fl.err)
	}
	if f.store != nil {
		e, err := f.store.Get(f.name, language)
		if err == nil {
			f.loaded[language] = e.Words
			return e.Words, nil
		}
		if !errors.Is(err, ErrNotCached) {
			f.logger.Warn("corpus cache read failed", "corpus", f.name, "error", err)
		}
	}
	return f.refresh(ctx, language)
}

// Refresh downloads the word list for language and updates the cache,
// ignoring any remembered list or failure.
func (f *Fetcher) Refresh(ctx context.Context, language string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh(ctx, language)
}

func (f *Fetcher) refresh(ctx context.Context, language string) ([]string, error) {
	words, err := f.fetch(ctx, language)
	if err != nil {
		// A cancelled caller says nothing about the upstream.
		if ctx.Err() == nil {
			f.failures[language] = failure{err: err, at: f.now()}
		}
		return nil, err
	}
	delete(f.failures, language)
	f.loaded[language] = words
	return words, nil
}

func (f *Fetcher) fetch(ctx context.Context, language string) ([]string, error) {
	if language == "" || strings.ContainsAny(language, `/\.`) {
		return nil, fmt.Errorf("invalid language %q", language)
	}

	body, err := f.download(ctx)
	if err != nil {
		return nil, err
	}
	text, err := extract(body, language)
	if err != nil {
		return nil, err
	}
	words := splitWords(text)
	if len(words) == 0 {
		return nil, fmt.Errorf("corpus %s/%s is empty", f.name, language)
	}

	if f.store != nil {
		if err := f.store.Put(f.name, language, f.url, words); err != nil {
			f.logger.Warn("corpus cache write failed", "corpus", f.name, "error", err)
		}
	}
	f.logger.Info("corpus downloaded", "corpus", f.name, "language", language, "words", len(words))
	return words, nil
}

// download fetches f.url with retries and exponential backoff.
func (f *Fetcher) download(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := f.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, f.url)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxCorpusSize))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("download %s failed after %d attempts: %w", f.url, maxAttempts, lastErr)
}

// extract returns the word list for language. ZIP archives are searched for
// an entry named after the language (e.g. stopwords/english); any other body
// is taken as the list itself.
func extract(body []byte, language string) (string, error) {
	if !bytes.HasPrefix(body, []byte("PK\x03\x04")) {
		return string(body), nil
	}

	r, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	for _, zf := range r.File {
		if zf.FileInfo().IsDir() || path.Base(zf.Name) != language {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", fmt.Errorf("open zip entry %s: %w", zf.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxCorpusSize))
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", zf.Name, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no %q entry in corpus archive", language)
}
