package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/reviewlab/pkg/session"
	"github.com/hazyhaar/reviewlab/pkg/textclean"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func TestDecodeOptions(t *testing.T) {
	defaults := textclean.DefaultOptions()

	got, err := decodeOptions(map[string]any{}, defaults)
	if err != nil || got != defaults {
		t.Errorf("empty args = %+v, %v; want defaults", got, err)
	}

	got, err = decodeOptions(map[string]any{
		"use_stemming":     true,
		"remove_stopwords": false,
		"min_word_len":     float64(3),
	}, defaults)
	if err != nil {
		t.Fatalf("decodeOptions: %v", err)
	}
	if !got.UseStemming || got.RemoveStopwords || got.MinWordLen != 3 || !got.Lowercase {
		t.Errorf("decoded = %+v", got)
	}
}

func TestDecodeOptions_Invalid(t *testing.T) {
	bad := []map[string]any{
		{"lowercase": "yes"},
		{"min_word_len": -1.0},
		{"min_word_len": 2.5},
		{"min_word_len": "2"},
	}
	for _, args := range bad {
		if _, err := decodeOptions(args, textclean.DefaultOptions()); err == nil {
			t.Errorf("decodeOptions(%v): expected error", args)
		}
	}
}

func TestRegisterMCPTools(t *testing.T) {
	srv := server.NewMCPServer("reviewlab", "test", server.WithToolCapabilities(false))
	mgr := session.NewManager(session.Config{})
	s := mgr.Open()
	// Registration must accept every tool definition without panicking.
	RegisterMCPTools(srv, Config{Sessions: mgr, Defaults: textclean.DefaultOptions()}, s.ID)
}

func testTools(t *testing.T) (*session.Session, map[string]func(map[string]any) (string, bool)) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Restaurant_Reviews.tsv")
	if err := os.WriteFile(path, []byte(reviewsTSV), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.NewManager(session.Config{DefaultPath: path, Logger: logger})
	s := mgr.Open()
	cfg := Config{Sessions: mgr, Defaults: textclean.DefaultOptions(), Logger: logger}

	calls := make(map[string]func(map[string]any) (string, bool))
	for _, tool := range mcpTools(cfg.withDefaults(), s.ID) {
		name, handle := tool.Tool.Name, tool.Handler()
		calls[name] = func(args map[string]any) (string, bool) {
			t.Helper()
			req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
			res, err := handle(context.Background(), req)
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			return toolText(t, res), res.IsError
		}
	}
	return s, calls
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content = %v, want one item", res.Content)
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("content %T is not text", res.Content[0])
	return ""
}

func TestMCPCleanText_SplitsLines(t *testing.T) {
	_, call := testTools(t)

	text, isErr := call["clean_text"](map[string]any{
		"texts": "The Food was AMAZING!! 10/10\r\nCrust is not good.\n",
	})
	if isErr {
		t.Fatalf("clean_text error: %s", text)
	}
	var resp cleanResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal %s: %v", text, err)
	}
	want := []string{"food amazing", "crust good", ""}
	if len(resp.Cleaned) != len(want) {
		t.Fatalf("cleaned = %q, want %q", resp.Cleaned, want)
	}
	for i := range want {
		if resp.Cleaned[i] != want[i] {
			t.Errorf("cleaned[%d] = %q, want %q", i, resp.Cleaned[i], want[i])
		}
	}
}

func TestMCPCleanText_InvalidArguments(t *testing.T) {
	_, call := testTools(t)
	for _, args := range []map[string]any{
		{},
		{"texts": 42.0},
		{"texts": "ok", "min_word_len": 1.5},
	} {
		if text, isErr := call["clean_text"](args); !isErr {
			t.Errorf("clean_text(%v) = %s, want tool error", args, text)
		}
	}
}

func TestMCPSetColumnsThenCleanDataset(t *testing.T) {
	s, call := testTools(t)

	if text, isErr := call["set_columns"](map[string]any{}); !isErr {
		t.Errorf("set_columns without text_column = %s, want tool error", text)
	}

	text, isErr := call["set_columns"](map[string]any{"text_column": "Review", "label_column": "Liked"})
	if isErr {
		t.Fatalf("set_columns error: %s", text)
	}
	if cols, ok := s.Columns(); !ok || cols.Text != "Review" || cols.Label != "Liked" {
		t.Errorf("session columns = %+v, %v", cols, ok)
	}

	// JSON numbers arrive as float64.
	text, isErr = call["clean_dataset"](map[string]any{"limit": float64(1)})
	if isErr {
		t.Fatalf("clean_dataset error: %s", text)
	}
	var resp cleanResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal %s: %v", text, err)
	}
	if len(resp.Cleaned) != 1 || resp.Cleaned[0] != "food amazing" {
		t.Errorf("cleaned = %q, want [food amazing]", resp.Cleaned)
	}
	if len(resp.Labels) != 1 || resp.Labels[0] != 1 {
		t.Errorf("labels = %v, want [1]", resp.Labels)
	}

	for _, bad := range []any{-1.0, 0.5, "2"} {
		if text, isErr := call["clean_dataset"](map[string]any{"limit": bad}); !isErr {
			t.Errorf("clean_dataset(limit=%v) = %s, want tool error", bad, text)
		}
	}
}

func TestMCPDatasetInfo_LoadsDefault(t *testing.T) {
	_, call := testTools(t)
	text, isErr := call["dataset_info"](nil)
	if isErr {
		t.Fatalf("dataset_info error: %s", text)
	}
	var info datasetInfo
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		t.Fatalf("unmarshal %s: %v", text, err)
	}
	if !info.Loaded || info.Rows != 2 || info.Delimiter != "tab" {
		t.Errorf("info = %+v, want default dataset with 2 rows", info)
	}
}
