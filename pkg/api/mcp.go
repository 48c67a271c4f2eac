package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/textprep/pkg/kit"
)

// NewMCPServer returns an MCP server exposing the textprep tools.
func NewMCPServer(s *Service, version string) *server.MCPServer {
	srv := server.NewMCPServer("textprep", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, s)
	return srv
}

// NewMCPHandler serves srv over streamable HTTP.
func NewMCPHandler(srv *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(srv)
}

// RegisterMCPTools registers the textprep MCP tools on the server. Tools
// take a "text" argument holding one or more lines and dispatch to the
// same endpoints as the HTTP routes.
func RegisterMCPTools(srv *server.MCPServer, s *Service) {
	ep := s.endpoints()
	registerNormalize(srv, ep.normalize)
	registerTokenize(srv, ep.tokenize)
	registerDetokenize(srv, ep.detokenize)
	registerTruecase(srv, ep.truecase)
	registerDetruecase(srv, ep.detruecase)
	registerListModels(srv, ep.listModels)
	registerDeleteModel(srv, ep.deleteModel)
	registerListLanguages(srv, ep.listLanguages)
}

func registerNormalize(srv *server.MCPServer, e kit.Endpoint) {
	tool := mcp.NewTool("normalize",
		mcp.WithDescription("Normalize punctuation, quotes and whitespace line by line (Moses punctuation normalizer)."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to normalize, one sentence per line")),
		mcp.WithString("language", mcp.Description("ISO 639-1 language code (default en)")),
		mcp.WithBoolean("penn", mcp.Description("Keep Penn Treebank style quotes")),
		mcp.WithBoolean("no_quote_commas", mcp.Description("Do not move commas and periods around quotes")),
		mcp.WithBoolean("no_numbers", mcp.Description("Do not normalize number separators")),
		mcp.WithString("unicode_form", mcp.Description("Compose the text first: NFC or NFKC")),
	)
	kit.RegisterMCPTool(srv, tool, e, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		lines, err := textArg(args)
		if err != nil {
			return nil, err
		}
		r := &normalizeReq{Lines: lines}
		r.Language = kit.StringArg(args, "language")
		r.Penn = kit.BoolArg(args, "penn")
		r.NoQuoteCommas = kit.BoolArg(args, "no_quote_commas")
		r.NoNumbers = kit.BoolArg(args, "no_numbers")
		r.UnicodeForm = kit.StringArg(args, "unicode_form")
		return &kit.MCPDecodeResult{Request: r, EnrichCtx: withLanguage(r.Language)}, nil
	})
}

func registerTokenize(srv *server.MCPServer, e kit.Endpoint) {
	tool := mcp.NewTool("tokenize",
		mcp.WithDescription("Split text into tokens line by line, with per-language rules and XML escaping."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to tokenize, one sentence per line")),
		mcp.WithString("language", mcp.Description("ISO 639-1 language code (default en)")),
		mcp.WithBoolean("aggressive_dash", mcp.Description("Split hyphenated words into x @-@ y")),
		mcp.WithBoolean("no_escape", mcp.Description("Do not escape XML special characters")),
		mcp.WithBoolean("protect_basic", mcp.Description("Keep XML tags, e-mail addresses and URLs whole")),
		mcp.WithBoolean("protect_web", mcp.Description("Also keep query strings, www host names, hashtags and @mentions whole")),
		mcp.WithArray("protected", mcp.WithStringItems(),
			mcp.Description("Regular expressions whose matches are kept as single tokens, highest priority first")),
	)
	kit.RegisterMCPTool(srv, tool, e, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		lines, err := textArg(args)
		if err != nil {
			return nil, err
		}
		r := &tokenizeReq{Lines: lines}
		r.Language = kit.StringArg(args, "language")
		r.AggressiveDash = kit.BoolArg(args, "aggressive_dash")
		r.NoEscape = kit.BoolArg(args, "no_escape")
		r.ProtectBasic = kit.BoolArg(args, "protect_basic")
		r.ProtectWeb = kit.BoolArg(args, "protect_web")
		r.Protected = kit.StringsArg(args, "protected")
		return &kit.MCPDecodeResult{Request: r, EnrichCtx: withLanguage(r.Language)}, nil
	})
}

func registerDetokenize(srv *server.MCPServer, e kit.Endpoint) {
	tool := mcp.NewTool("detokenize",
		mcp.WithDescription("Join space-separated tokens back into natural text line by line."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Tokenized text, one sentence per line")),
		mcp.WithString("language", mcp.Description("ISO 639-1 language code (default en)")),
		mcp.WithBoolean("no_unescape", mcp.Description("Keep XML entities as they are")),
	)
	kit.RegisterMCPTool(srv, tool, e, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		lines, err := textArg(args)
		if err != nil {
			return nil, err
		}
		language := kit.StringArg(args, "language")
		unescape := !kit.BoolArg(args, "no_unescape")
		return &kit.MCPDecodeResult{
			Request:   &detokenizeReq{Lines: lines, Language: language, Unescape: &unescape},
			EnrichCtx: withLanguage(language),
		}, nil
	})
}

func registerTruecase(srv *server.MCPServer, e kit.Endpoint) {
	tool := mcp.NewTool("truecase",
		mcp.WithDescription("Restore the most frequent casing of each token using a stored casing model."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Tokenized text, one sentence per line")),
		mcp.WithString("model", mcp.Required(), mcp.Description("Name of the stored casing model (see list_models)")),
	)
	kit.RegisterMCPTool(srv, tool, e, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		lines, err := textArg(args)
		if err != nil {
			return nil, err
		}
		model := kit.StringArg(args, "model")
		return &kit.MCPDecodeResult{Request: &truecaseReq{Lines: lines, Model: model}}, nil
	})
}

func registerDetruecase(srv *server.MCPServer, e kit.Endpoint) {
	tool := mcp.NewTool("detruecase",
		mcp.WithDescription("Capitalize sentence starts, or every content word in headline mode."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Tokenized text, one sentence per line")),
		mcp.WithBoolean("headline", mcp.Description("Title-case every word except function words")),
	)
	kit.RegisterMCPTool(srv, tool, e, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		lines, err := textArg(args)
		if err != nil {
			return nil, err
		}
		headline := kit.BoolArg(args, "headline")
		return &kit.MCPDecodeResult{Request: &detruecaseReq{Lines: lines, Headline: headline}}, nil
	})
}

func registerListModels(srv *server.MCPServer, e kit.Endpoint) {
	tool := mcp.NewTool("list_models",
		mcp.WithDescription("List stored casing models with language, ASR flag and word count."),
	)
	kit.RegisterMCPTool(srv, tool, e, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func registerDeleteModel(srv *server.MCPServer, e kit.Endpoint) {
	tool := mcp.NewTool("delete_model",
		mcp.WithDescription("Delete a stored casing model."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the stored casing model")),
	)
	kit.RegisterMCPTool(srv, tool, e, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		name := kit.StringArg(req.GetArguments(), "name")
		if name == "" {
			return nil, fmt.Errorf("name is required")
		}
		return &kit.MCPDecodeResult{Request: &deleteModelReq{Name: name}}, nil
	})
}

func registerListLanguages(srv *server.MCPServer, e kit.Endpoint) {
	tool := mcp.NewTool("list_languages",
		mcp.WithDescription("List languages with non-breaking prefix tables."),
	)
	kit.RegisterMCPTool(srv, tool, e, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func withLanguage(code string) func(context.Context) context.Context {
	if code == "" {
		return nil
	}
	return func(ctx context.Context) context.Context { return kit.WithLanguage(ctx, code) }
}

func textArg(args map[string]any) ([]string, error) {
	text := kit.StringArg(args, "text")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required")
	}
	return splitText(text), nil
}
