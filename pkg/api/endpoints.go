package api

import (
	"context"
	"fmt"
	"io"

	"github.com/hazyhaar/reviewlab/pkg/dataset"
	"github.com/hazyhaar/reviewlab/pkg/kit"
	"github.com/hazyhaar/reviewlab/pkg/session"
	"github.com/hazyhaar/reviewlab/pkg/textclean"
)

// Shared request/response types used by both HTTP and MCP transports.

// CleanerFactory builds a cleaner for the given options with the process's
// corpus source and logger wired in.
type CleanerFactory func(textclean.Options) *textclean.Cleaner

type cleanTextsReq struct {
	Texts   []*string
	Options textclean.Options
}

type cleanSessionReq struct {
	SessionID string
	Options   textclean.Options
	Limit     int
}

type uploadDatasetReq struct {
	SessionID string
	Body      io.Reader
}

type cleanResponse struct {
	Cleaned []string         `json:"cleaned"`
	Labels  []int            `json:"labels,omitempty"`
	Status  textclean.Status `json:"status"`
	Warning string           `json:"warning,omitempty"`
}

type datasetInfo struct {
	SessionID string   `json:"session_id"`
	Loaded    bool     `json:"loaded"`
	Columns   []string `json:"columns,omitempty"`
	Rows      int      `json:"rows"`
	Delimiter string   `json:"delimiter,omitempty"`
	Text      string   `json:"text_column,omitempty"`
	Label     string   `json:"label_column,omitempty"`
}

const maxTexts = 10000

func cleanTextsEndpoint(newCleaner CleanerFactory) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*cleanTextsReq)
		if len(req.Texts) > maxTexts {
			return nil, fmt.Errorf("too many texts (max %d, got %d)", maxTexts, len(req.Texts))
		}
		if req.Options.MinWordLen < 0 {
			return nil, fmt.Errorf("min_word_len must be >= 0")
		}
		c := newCleaner(req.Options)
		cleaned := c.FitTransform(ctx, req.Texts)
		return newCleanResponse(cleaned, c.Status()), nil
	}
}

// cleanSessionEndpoint cleans the selected text column of a session's dataset.
func cleanSessionEndpoint(mgr *session.Manager, newCleaner CleanerFactory) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*cleanSessionReq)
		s, err := mgr.Get(req.SessionID)
		if err != nil {
			return nil, err
		}
		if !s.EnsureDatasetLoaded() {
			return nil, fmt.Errorf("no dataset loaded")
		}
		cols, ok := s.Columns()
		if !ok {
			return nil, fmt.Errorf("no columns selected")
		}
		ds := s.Dataset()
		texts, err := ds.Column(cols.Text)
		if err != nil {
			return nil, err
		}
		if req.Limit > 0 && req.Limit < len(texts) {
			texts = texts[:req.Limit]
		}

		c := newCleaner(req.Options)
		resp := newCleanResponse(c.FitTransform(ctx, texts), c.Status())
		if cols.Label != "" {
			labels, err := ds.Labels(cols.Label)
			if err != nil {
				resp.Warning = fmt.Sprintf("labels unavailable: %v", err)
			} else {
				resp.Labels = labels[:len(texts)]
			}
		}
		return resp, nil
	}
}

func datasetInfoEndpoint(mgr *session.Manager) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		id := request.(string)
		s, err := mgr.Get(id)
		if err != nil {
			return nil, err
		}
		s.EnsureDatasetLoaded()
		return describe(s), nil
	}
}

type setColumnsReq struct {
	SessionID string
	Columns   session.Columns
}

func setColumnsEndpoint(mgr *session.Manager) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*setColumnsReq)
		s, err := mgr.Get(req.SessionID)
		if err != nil {
			return nil, err
		}
		s.SetColumns(req.Columns.Text, req.Columns.Label)
		return describe(s), nil
	}
}

func describe(s *session.Session) datasetInfo {
	info := datasetInfo{SessionID: s.ID}
	if ds := s.Dataset(); ds != nil {
		info.Loaded = true
		info.Columns = ds.Header
		info.Rows = ds.Len()
		info.Delimiter = delimiterName(ds.Delimiter)
	}
	if cols, ok := s.Columns(); ok {
		info.Text = cols.Text
		info.Label = cols.Label
	}
	return info
}

func newCleanResponse(cleaned []string, st textclean.Status) cleanResponse {
	resp := cleanResponse{Cleaned: cleaned, Status: st}
	switch {
	case st.CorpusErr != nil:
		resp.Warning = fmt.Sprintf("stopword corpus unavailable: %v", st.CorpusErr)
	case st.Stemmer == textclean.StemmerUnavailable:
		resp.Warning = "stemmer unavailable"
	}
	return resp
}

func delimiterName(r rune) string {
	switch r {
	case '\t':
		return "tab"
	case 0:
		return ""
	default:
		return string(r)
	}
}

// uploadDatasetEndpoint parses a delimited body and replaces the session's dataset.
func uploadDatasetEndpoint(mgr *session.Manager, opts dataset.Options) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*uploadDatasetReq)
		s, err := mgr.Get(req.SessionID)
		if err != nil {
			return nil, err
		}
		ds, err := dataset.Parse(req.Body, opts)
		if err != nil {
			return nil, fmt.Errorf("parse dataset: %w", err)
		}
		s.SetDataset(ds)
		return describe(s), nil
	}
}
