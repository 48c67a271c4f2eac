// CLAUDE:SUMMARY Transport-agnostic endpoints for normalize, tokenize, detokenize, truecase, detruecase and the model/language listings.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hazyhaar/textprep/pkg/detruecase"
	"github.com/hazyhaar/textprep/pkg/kit"
	"github.com/hazyhaar/textprep/pkg/lang"
	"github.com/hazyhaar/textprep/pkg/modelstore"
	"github.com/hazyhaar/textprep/pkg/normalize"
	"github.com/hazyhaar/textprep/pkg/pipeline"
	"github.com/hazyhaar/textprep/pkg/tokenize"
	"github.com/hazyhaar/textprep/pkg/truecase"
)

// DefaultMaxBatch bounds the number of lines in one request.
const DefaultMaxBatch = 1000

// ErrInvalidRequest marks errors caused by the caller's input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNoModelStore is returned by model endpoints when the service runs
// without a model store.
var ErrNoModelStore = errors.New("model store not configured")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Config wires a Service.
type Config struct {
	Languages       *lang.Registry    // nil = lang.Builtin()
	Models          *modelstore.Store // nil disables truecasing and model listing
	Pool            *pipeline.Pool    // required
	DefaultLanguage string
	MaxBatch        int
	Logger          *slog.Logger
}

// Service holds the shared state behind every endpoint. Normalizers and
// tokenizers for registered languages are built once per option set and
// reused.
type Service struct {
	langs    *lang.Registry
	models   *modelstore.Store
	pool     *pipeline.Pool
	defLang  string
	maxBatch int
	logger   *slog.Logger

	normalizers sync.Map // normalize.Options -> *normalize.Normalizer
	tokenizers  sync.Map // tokenizerKey -> *tokenize.Tokenizer
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Pool == nil {
		return nil, errors.New("api: worker pool is required")
	}
	if cfg.Languages == nil {
		cfg.Languages = lang.Builtin()
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = lang.Default
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		langs:    cfg.Languages,
		models:   cfg.Models,
		pool:     cfg.Pool,
		defLang:  cfg.DefaultLanguage,
		maxBatch: cfg.MaxBatch,
		logger:   cfg.Logger,
	}, nil
}

// ReloadLanguages re-reads dir into the language registry and drops the
// cached tokenizers built from the old data.
func (s *Service) ReloadLanguages(dir string) error {
	if err := s.langs.LoadDir(dir); err != nil {
		return err
	}
	s.tokenizers.Range(func(k, _ any) bool {
		s.tokenizers.Delete(k)
		return true
	})
	return nil
}

// --- shared request/response types used by both HTTP and MCP transports ---

type normalizeReq struct {
	Lines         []string `json:"lines"`
	Language      string   `json:"language,omitempty"`
	Penn          bool     `json:"penn,omitempty"`
	NoQuoteCommas bool     `json:"no_quote_commas,omitempty"`
	NoNumbers     bool     `json:"no_numbers,omitempty"`
	UnicodeForm   string   `json:"unicode_form,omitempty"`
}

type tokenizeReq struct {
	Lines          []string `json:"lines"`
	Language       string   `json:"language,omitempty"`
	AggressiveDash bool     `json:"aggressive_dash,omitempty"`
	NoEscape       bool     `json:"no_escape,omitempty"`
	ProtectBasic   bool     `json:"protect_basic,omitempty"`
	ProtectWeb     bool     `json:"protect_web,omitempty"`
	Protected      []string `json:"protected,omitempty"`
}

type detokenizeReq struct {
	Lines    []string `json:"lines"`
	Language string   `json:"language,omitempty"`
	Unescape *bool    `json:"unescape,omitempty"`
}

type truecaseReq struct {
	Lines []string `json:"lines"`
	Model string   `json:"model"`
}

type detruecaseReq struct {
	Lines    []string `json:"lines"`
	Headline bool     `json:"headline,omitempty"`
}

type deleteModelReq struct {
	Name string `json:"name"`
}

type deleteModelResponse struct {
	Deleted string `json:"deleted"`
}

type linesResponse struct {
	Lines []string `json:"lines"`
}

type tokensResponse struct {
	Tokens [][]string `json:"tokens"`
}

type modelsResponse struct {
	Models []modelstore.Info `json:"models"`
}

type languagesResponse struct {
	Default   string              `json:"default"`
	Languages []lang.LanguageInfo `json:"languages"`
}

func (s *Service) checkLines(lines []string) error {
	if len(lines) == 0 {
		return invalid("lines array is empty")
	}
	if len(lines) > s.maxBatch {
		return invalid("too many lines (max %d, got %d)", s.maxBatch, len(lines))
	}
	return nil
}

// resolve returns the canonical form of a requested language code and
// whether the registry has data for it. Empty selects the default language.
func (s *Service) resolve(code string) (string, bool) {
	if code == "" {
		code = s.defLang
	}
	c := lang.Canonical(code)
	_, ok := s.langs.Lookup(c)
	return c, ok
}

func (s *Service) normalizer(req *normalizeReq) (*normalize.Normalizer, error) {
	form, err := normalize.ParseUnicodeForm(req.UnicodeForm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	code, known := s.resolve(req.Language)
	opts := normalize.Options{
		Language:             code,
		Penn:                 req.Penn,
		NormalizeQuoteCommas: !req.NoQuoteCommas,
		NormalizeNumbers:     !req.NoNumbers,
		UnicodeForm:          form,
	}
	// Only registered languages are cached.
	if !known {
		return normalize.New(opts), nil
	}
	if n, ok := s.normalizers.Load(opts); ok {
		return n.(*normalize.Normalizer), nil
	}
	n := normalize.New(opts)
	tbl := n.Table()
	s.logger.Debug("normalizer built",
		"language", tbl.Language(), "mode", tbl.Mode(), "groups", tbl.Groups(), "rules", tbl.Len())
	actual, _ := s.normalizers.LoadOrStore(opts, n)
	return actual.(*normalize.Normalizer), nil
}

type tokenizerKey struct {
	language       string
	aggressiveDash bool
	escape         bool
	protectBasic   bool
	protectWeb     bool
}

func (s *Service) tokenizer(req *tokenizeReq) (*tokenize.Tokenizer, error) {
	code, known := s.resolve(req.Language)
	opts := tokenize.Options{
		Language:             code,
		AggressiveDashSplits: req.AggressiveDash,
		EscapeXML:            !req.NoEscape,
		ProtectedPatterns:    req.Protected,
		ProtectBasic:         req.ProtectBasic,
		ProtectWeb:           req.ProtectWeb,
		Languages:            s.langs,
	}
	// Caller patterns and unregistered languages are built per request.
	if len(req.Protected) > 0 || !known {
		t, err := tokenize.NewTokenizer(opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return t, nil
	}
	key := tokenizerKey{code, opts.AggressiveDashSplits, opts.EscapeXML, opts.ProtectBasic, opts.ProtectWeb}
	if t, ok := s.tokenizers.Load(key); ok {
		return t.(*tokenize.Tokenizer), nil
	}
	t, err := tokenize.NewTokenizer(opts)
	if err != nil {
		return nil, err
	}
	actual, _ := s.tokenizers.LoadOrStore(key, t)
	return actual.(*tokenize.Tokenizer), nil
}

// --- endpoints ---

func normalizeEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*normalizeReq)
		if err := s.checkLines(req.Lines); err != nil {
			return nil, err
		}
		n, err := s.normalizer(req)
		if err != nil {
			return nil, err
		}
		out, err := pipeline.Map(ctx, s.pool, req.Lines, n.Normalize)
		if err != nil {
			return nil, err
		}
		return linesResponse{Lines: out}, nil
	}
}

func tokenizeEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*tokenizeReq)
		if err := s.checkLines(req.Lines); err != nil {
			return nil, err
		}
		t, err := s.tokenizer(req)
		if err != nil {
			return nil, err
		}
		out, err := pipeline.Map(ctx, s.pool, req.Lines, t.Tokenize)
		if err != nil {
			return nil, err
		}
		return tokensResponse{Tokens: out}, nil
	}
}

func detokenizeEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*detokenizeReq)
		if err := s.checkLines(req.Lines); err != nil {
			return nil, err
		}
		unescape := req.Unescape == nil || *req.Unescape
		code, _ := s.resolve(req.Language)
		d := tokenize.NewDetokenizer(code)
		out, err := pipeline.Map(ctx, s.pool, req.Lines, func(line string) string {
			return d.DetokenizeString(line, unescape)
		})
		if err != nil {
			return nil, err
		}
		return linesResponse{Lines: out}, nil
	}
}

func truecaseEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*truecaseReq)
		if err := s.checkLines(req.Lines); err != nil {
			return nil, err
		}
		if req.Model == "" {
			return nil, invalid("model is required")
		}
		if s.models == nil {
			return nil, ErrNoModelStore
		}
		m, err := s.models.Load(ctx, req.Model)
		if err != nil {
			return nil, err
		}
		tc := truecase.New(m)
		out, err := pipeline.Map(ctx, s.pool, req.Lines, tc.TruecaseString)
		if err != nil {
			return nil, err
		}
		return linesResponse{Lines: out}, nil
	}
}

func detruecaseEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*detruecaseReq)
		if err := s.checkLines(req.Lines); err != nil {
			return nil, err
		}
		out, err := pipeline.Map(ctx, s.pool, req.Lines, func(line string) string {
			return detruecase.Detruecase(line, req.Headline)
		})
		if err != nil {
			return nil, err
		}
		return linesResponse{Lines: out}, nil
	}
}

func listModelsEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if s.models == nil {
			return modelsResponse{Models: []modelstore.Info{}}, nil
		}
		infos, err := s.models.List(ctx)
		if err != nil {
			return nil, err
		}
		if infos == nil {
			infos = []modelstore.Info{}
		}
		return modelsResponse{Models: infos}, nil
	}
}

func deleteModelEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*deleteModelReq)
		if req.Name == "" {
			return nil, invalid("model name is required")
		}
		if s.models == nil {
			return nil, ErrNoModelStore
		}
		if err := s.models.Delete(ctx, req.Name); err != nil {
			return nil, err
		}
		return deleteModelResponse{Deleted: req.Name}, nil
	}
}

func listLanguagesEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return languagesResponse{Default: s.defLang, Languages: s.langs.List()}, nil
	}
}

// endpoints is the set of endpoints shared by the HTTP and MCP transports,
// each wrapped with request ids and logging.
type endpoints struct {
	normalize     kit.Endpoint
	tokenize      kit.Endpoint
	detokenize    kit.Endpoint
	truecase      kit.Endpoint
	detruecase    kit.Endpoint
	listModels    kit.Endpoint
	deleteModel   kit.Endpoint
	listLanguages kit.Endpoint
}

func (s *Service) endpoints() endpoints {
	wrap := func(name string, e kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(s.logger, name))(e)
	}
	return endpoints{
		normalize:     wrap("normalize", normalizeEndpoint(s)),
		tokenize:      wrap("tokenize", tokenizeEndpoint(s)),
		detokenize:    wrap("detokenize", detokenizeEndpoint(s)),
		truecase:      wrap("truecase", truecaseEndpoint(s)),
		detruecase:    wrap("detruecase", detruecaseEndpoint(s)),
		listModels:    wrap("list_models", listModelsEndpoint(s)),
		deleteModel:   wrap("delete_model", deleteModelEndpoint(s)),
		listLanguages: wrap("list_languages", listLanguagesEndpoint(s)),
	}
}

// languageOf returns the language code a request asks for, if any.
func languageOf(req any) string {
	switch r := req.(type) {
	case *normalizeReq:
		return r.Language
	case *tokenizeReq:
		return r.Language
	case *detokenizeReq:
		return r.Language
	default:
		return ""
	}
}

// splitText turns a multi-line text argument into lines.
func splitText(text string) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
