// CLAUDE:SUMMARY textprep CLI: line-oriented normalize/tokenize/detokenize/truecase/detruecase filters, truecaser training and merging, and the API server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/textprep/pkg/lang"
	"github.com/hazyhaar/textprep/pkg/pipeline"
)

var version = "dev"

type tlsConfig struct {
	Cert  string `yaml:"cert"`
	Key   string `yaml:"key"`
	Dev   bool   `yaml:"dev"`
	HTTP3 bool   `yaml:"http3"`
}

type config struct {
	Addr            string    `yaml:"addr"`
	ModelsDB        string    `yaml:"models_db"`
	LanguagesDir    string    `yaml:"languages_dir"`
	DefaultLanguage string    `yaml:"default_language"`
	Workers         int       `yaml:"workers"`
	LogLevel        string    `yaml:"log_level"`
	MaxBatch        int       `yaml:"max_batch"`
	TLS             tlsConfig `yaml:"tls"`
}

var commands = map[string]func(args []string) error{
	"normalize":      cmdNormalize,
	"tokenize":       cmdTokenize,
	"detokenize":     cmdDetokenize,
	"train-truecase": cmdTrainTruecase,
	"merge-truecase": cmdMergeTruecase,
	"truecase":       cmdTruecase,
	"detruecase":     cmdDetruecase,
	"models":         cmdModels,
	"serve":          cmdServe,
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(1)
	}
	if err := cmd(os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: textprep <command> [flags]

Commands:
  normalize        Normalize punctuation (stdin -> stdout)
  tokenize         Tokenize lines
  detokenize       Detokenize lines
  train-truecase   Learn a casing model from a tokenized corpus
  merge-truecase   Merge partial casing tables into a model
  truecase         Restore casing with a model
  detruecase       Capitalize sentence starts or headlines
  models           List or delete casing models in the models database
  serve            Start the HTTP + MCP server

Run "textprep <command> -h" for command flags.
`)
}

func defaultConfig() config {
	return config{
		Addr:            ":8421",
		ModelsDB:        "models.db",
		DefaultLanguage: lang.Default,
		LogLevel:        "info",
		MaxBatch:        1000,
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultWorkers() int {
	return runtime.NumCPU()
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

func setupLogger(level string) (*slog.Logger, error) {
	l, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger, nil
}

// common holds the flags every line filter shares.
type common struct {
	config   *string
	workers  *int
	encoding *string
	input    *string
	output   *string
	logLevel *string
	langDir  *string
	batch    *int
}

func addCommon(fs *flag.FlagSet) *common {
	return &common{
		config:   fs.String("config", "", "path to config file"),
		workers:  fs.Int("j", 0, "worker count (default: config, else CPU count)"),
		encoding: fs.String("e", "utf-8", "input/output encoding (WHATWG name)"),
		input:    fs.String("i", "-", "input file, - for stdin"),
		output:   fs.String("o", "-", "output file, - for stdout"),
		logLevel: fs.String("log-level", "", "debug, info, warn or error (overrides config)"),
		langDir:  fs.String("lang-dir", "", "extra language data directory (overrides config)"),
		batch:    fs.Int("batch", pipeline.DefaultBatch, "lines handed to the workers at once"),
	}
}

// env is the runtime a line filter works in.
type env struct {
	cfg    config
	logger *slog.Logger
	langs  *lang.Registry
	pool   *pipeline.Pool
	in     io.Reader
	out    io.Writer

	closers []io.Closer
}

func (c *common) setup() (*env, error) {
	cfg, err := loadConfig(*c.config)
	if err != nil {
		return nil, err
	}
	if *c.logLevel != "" {
		cfg.LogLevel = *c.logLevel
	}
	if *c.langDir != "" {
		cfg.LanguagesDir = *c.langDir
	}
	if *c.workers > 0 {
		cfg.Workers = *c.workers
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers()
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	langs, err := loadLanguages(cfg.LanguagesDir)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, langs: langs}
	if err := e.openIO(*c.input, *c.output, *c.encoding); err != nil {
		e.close()
		return nil, err
	}
	if e.pool, err = pipeline.NewPool(cfg.Workers); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func loadLanguages(dir string) (*lang.Registry, error) {
	if dir == "" {
		return lang.Builtin(), nil
	}
	reg, err := lang.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := reg.LoadDir(dir); err != nil {
		return nil, err
	}
	return reg, nil
}

// lookupEncoding resolves a WHATWG encoding name. UTF-8 needs no transcoding
// and returns nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", name, err)
	}
	return enc, nil
}

func (e *env) openIO(input, output, encName string) error {
	enc, err := lookupEncoding(encName)
	if err != nil {
		return err
	}

	e.in = os.Stdin
	if input != "-" && input != "" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		e.closers = append(e.closers, f)
		e.in = f
	}
	e.out = os.Stdout
	if output != "-" && output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		e.closers = append(e.closers, f)
		e.out = f
	}

	if enc != nil {
		e.in = transform.NewReader(e.in, enc.NewDecoder())
		w := transform.NewWriter(e.out, enc.NewEncoder())
		// The transformer must flush before the file closes.
		e.closers = append([]io.Closer{w}, e.closers...)
		e.out = w
	}
	return nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Release()
	}
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.logger.Warn("close", "error", err)
		}
	}
}
