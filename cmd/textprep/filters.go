package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hazyhaar/textprep/pkg/detruecase"
	"github.com/hazyhaar/textprep/pkg/normalize"
	"github.com/hazyhaar/textprep/pkg/pipeline"
	"github.com/hazyhaar/textprep/pkg/tokenize"
)

// runFilter streams the input through fn on the worker pool.
func runFilter(name string, c *common, e *env, fn func(string) string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	n, err := pipeline.Stream(ctx, e.pool, e.in, e.out, *c.batch, fn)
	if err != nil {
		return fmt.Errorf("%s after %d lines: %w", name, n, err)
	}
	e.logger.Debug(name+" done", "lines", n, "workers", e.pool.Size(), "duration", time.Since(start))
	return nil
}

func language(flagValue string, e *env) string {
	if flagValue != "" {
		return flagValue
	}
	return e.cfg.DefaultLanguage
}

func cmdNormalize(args []string) error {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	c := addCommon(fs)
	code := fs.String("l", "", "language code (default: config default_language)")
	penn := fs.Bool("penn", false, "keep Penn Treebank style quotes")
	noQuoteCommas := fs.Bool("no-quote-commas", false, "do not move commas and periods around quotes")
	noNumbers := fs.Bool("no-numbers", false, "do not normalize number separators")
	form := fs.String("unicode-form", "", "compose input first: NFC or NFKC")
	if err := fs.Parse(args); err != nil {
		return err
	}
	unicodeForm, err := normalize.ParseUnicodeForm(*form)
	if err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.close()

	n := normalize.New(normalize.Options{
		Language:             language(*code, e),
		Penn:                 *penn,
		NormalizeQuoteCommas: !*noQuoteCommas,
		NormalizeNumbers:     !*noNumbers,
		UnicodeForm:          unicodeForm,
	})
	return runFilter("normalize", c, e, n.Normalize)
}

func cmdTokenize(args []string) error {
	fs := flag.NewFlagSet("tokenize", flag.ContinueOnError)
	c := addCommon(fs)
	code := fs.String("l", "", "language code (default: config default_language)")
	aggressive := fs.Bool("a", false, "aggressive hyphen splitting (x @-@ y)")
	noEscape := fs.Bool("no-escape", false, "do not escape XML special characters")
	protectFile := fs.String("protected", "", "file of protected patterns, one regex per line")
	protectBasic := fs.Bool("protect-basic", false, "keep XML tags, e-mail addresses and URLs whole")
	protectWeb := fs.Bool("protect-web", false, "also keep query strings, www host names, hashtags and @mentions whole")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.close()

	var patterns []string
	if *protectFile != "" {
		if patterns, err = readPatterns(*protectFile); err != nil {
			return err
		}
	}
	t, err := tokenize.NewTokenizer(tokenize.Options{
		Language:             language(*code, e),
		AggressiveDashSplits: *aggressive,
		EscapeXML:            !*noEscape,
		ProtectedPatterns:    patterns,
		ProtectBasic:         *protectBasic,
		ProtectWeb:           *protectWeb,
		Languages:            e.langs,
	})
	if err != nil {
		return err
	}
	return runFilter("tokenize", c, e, t.TokenizeString)
}

// readPatterns reads one pattern per line, skipping blanks and # comments.
func readPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open protected patterns: %w", err)
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		p := strings.TrimSpace(sc.Text())
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		patterns = append(patterns, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read protected patterns: %w", err)
	}
	return patterns, nil
}

func cmdDetokenize(args []string) error {
	fs := flag.NewFlagSet("detokenize", flag.ContinueOnError)
	c := addCommon(fs)
	code := fs.String("l", "", "language code (default: config default_language)")
	noUnescape := fs.Bool("no-unescape", false, "keep XML entities as they are")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.close()

	d := tokenize.NewDetokenizer(language(*code, e))
	unescape := !*noUnescape
	return runFilter("detokenize", c, e, func(line string) string {
		return d.DetokenizeString(line, unescape)
	})
}

func cmdDetruecase(args []string) error {
	fs := flag.NewFlagSet("detruecase", flag.ContinueOnError)
	c := addCommon(fs)
	headline := fs.Bool("headline", false, "title-case every word except function words")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.close()

	return runFilter("detruecase", c, e, func(line string) string {
		return detruecase.Detruecase(line, *headline)
	})
}
