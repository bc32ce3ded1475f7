package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/reviewlab/pkg/kit"
	"github.com/hazyhaar/reviewlab/pkg/session"
	"github.com/hazyhaar/reviewlab/pkg/textclean"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the review tools on the server. The MCP
// transport serves a single interactive session, identified by sessionID.
func RegisterMCPTools(srv *server.MCPServer, cfg Config, sessionID string) {
	kit.RegisterMCPTools(srv, mcpTools(cfg.withDefaults(), sessionID)...)
}

func mcpTools(cfg Config, sessionID string) []kit.MCPTool {
	enrich := func(ctx context.Context) context.Context { return kit.WithSessionID(ctx, sessionID) }
	return []kit.MCPTool{
		cleanTextTool(cfg),
		datasetInfoTool(cfg, sessionID, enrich),
		setColumnsTool(cfg, sessionID, enrich),
		cleanDatasetTool(cfg, sessionID, enrich),
	}
}

func cleanerOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithBoolean("lowercase", mcp.Description("Lowercase the text (default true)")),
		mcp.WithBoolean("remove_punct_num", mcp.Description("Replace punctuation and digits with spaces (default true)")),
		mcp.WithBoolean("remove_stopwords", mcp.Description("Drop English stopwords (default true)")),
		mcp.WithBoolean("use_stemming", mcp.Description("Reduce tokens to their Snowball stem (default false)")),
		mcp.WithNumber("min_word_len", mcp.Description("Drop tokens shorter than this (default 2)")),
	}
}

// decodeOptions overlays tool arguments on the configured defaults.
func decodeOptions(args map[string]any, defaults textclean.Options) (textclean.Options, error) {
	opts := defaults
	flags := map[string]*bool{
		"lowercase":        &opts.Lowercase,
		"remove_punct_num": &opts.RemovePunctNum,
		"remove_stopwords": &opts.RemoveStopwords,
		"use_stemming":     &opts.UseStemming,
	}
	for name, dst := range flags {
		v, ok := args[name]
		if !ok {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return opts, fmt.Errorf("%s must be a boolean", name)
		}
		*dst = b
	}
	if v, ok := args["min_word_len"]; ok {
		n, ok := v.(float64)
		if !ok || n < 0 || n != float64(int(n)) {
			return opts, fmt.Errorf("min_word_len must be a non-negative integer")
		}
		opts.MinWordLen = int(n)
	}
	return opts, nil
}

func cleanTextTool(cfg Config) kit.MCPTool {
	return kit.MCPTool{
		Tool: mcp.NewTool("clean_text",
			append([]mcp.ToolOption{
				mcp.WithDescription("Normalize review texts: lowercase, strip punctuation and digits, drop stopwords and short tokens, optionally stem."),
				mcp.WithString("texts", mcp.Required(), mcp.Description("Texts to clean, one per line")),
			}, cleanerOptions()...)...,
		),
		Endpoint: cfg.wrap("clean_text", cleanTextsEndpoint(cfg.NewCleaner)),
		Decode: func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			raw, ok := args["texts"].(string)
			if !ok {
				return nil, fmt.Errorf("texts must be a string")
			}
			opts, err := decodeOptions(args, cfg.Defaults)
			if err != nil {
				return nil, err
			}
			raw = strings.ReplaceAll(raw, "\r\n", "\n")
			return &kit.MCPDecodeResult{Request: &cleanTextsReq{
				Texts:   textclean.Strings(strings.Split(raw, "\n")),
				Options: opts,
			}}, nil
		},
	}
}

func datasetInfoTool(cfg Config, sessionID string, enrich func(context.Context) context.Context) kit.MCPTool {
	return kit.MCPTool{
		Tool: mcp.NewTool("dataset_info",
			mcp.WithDescription("Describe the session's dataset (columns, row count, delimiter) and the selected text/label columns. Loads the default dataset if none is set."),
		),
		Endpoint: cfg.wrap("dataset_info", datasetInfoEndpoint(cfg.Sessions)),
		Decode: func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			return &kit.MCPDecodeResult{Request: sessionID, EnrichCtx: enrich}, nil
		},
	}
}

func setColumnsTool(cfg Config, sessionID string, enrich func(context.Context) context.Context) kit.MCPTool {
	return kit.MCPTool{
		Tool: mcp.NewTool("set_columns",
			mcp.WithDescription("Select the text and label columns of the session's dataset."),
			mcp.WithString("text_column", mcp.Required(), mcp.Description("Column holding the review text")),
			mcp.WithString("label_column", mcp.Description("Column holding the class label")),
		),
		Endpoint: cfg.wrap("set_columns", setColumnsEndpoint(cfg.Sessions)),
		Decode: func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			text, _ := args["text_column"].(string)
			if text == "" {
				return nil, fmt.Errorf("text_column is required")
			}
			label, _ := args["label_column"].(string)
			return &kit.MCPDecodeResult{
				Request:   &setColumnsReq{SessionID: sessionID, Columns: session.Columns{Text: text, Label: label}},
				EnrichCtx: enrich,
			}, nil
		},
	}
}

func cleanDatasetTool(cfg Config, sessionID string, enrich func(context.Context) context.Context) kit.MCPTool {
	return kit.MCPTool{
		Tool: mcp.NewTool("clean_dataset",
			append([]mcp.ToolOption{
				mcp.WithDescription("Clean the selected text column of the session's dataset."),
				mcp.WithNumber("limit", mcp.Description("Only clean the first N rows (0 = all)")),
			}, cleanerOptions()...)...,
		),
		Endpoint: cfg.wrap("clean_session", cleanSessionEndpoint(cfg.Sessions, cfg.NewCleaner)),
		Decode: func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			opts, err := decodeOptions(args, cfg.Defaults)
			if err != nil {
				return nil, err
			}
			var limit int
			if v, ok := args["limit"]; ok {
				n, ok := v.(float64)
				if !ok || n < 0 || n != float64(int(n)) {
					return nil, fmt.Errorf("limit must be a non-negative integer")
				}
				limit = int(n)
			}
			return &kit.MCPDecodeResult{
				Request:   &cleanSessionReq{SessionID: sessionID, Options: opts, Limit: limit},
				EnrichCtx: enrich,
			}, nil
		},
	}
}
