package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/textprep/pkg/modelstore"
	"github.com/hazyhaar/textprep/pkg/pipeline"
	"github.com/hazyhaar/textprep/pkg/truecase"
)

// modelOutput holds the flags choosing where a trained model goes.
type modelOutput struct {
	path     *string
	store    *string
	language *string
}

func addModelOutput(fs *flag.FlagSet) *modelOutput {
	return &modelOutput{
		path:     fs.String("model", "", "write the model to this file"),
		store:    fs.String("store", "", "save the model under this name in the models database"),
		language: fs.String("l", "", "language recorded with a stored model"),
	}
}

// write saves m to the model file and/or the store. With neither set the
// model is written to the command output.
func (o *modelOutput) write(ctx context.Context, e *env, m *truecase.Model) error {
	if *o.path == "" && *o.store == "" {
		_, err := m.WriteTo(e.out)
		return err
	}
	if *o.path != "" {
		if err := truecase.SaveFile(m, *o.path); err != nil {
			return err
		}
		e.logger.Info("model written", "path", *o.path, "words", m.Len(), "asr", m.ASR())
	}
	if *o.store != "" {
		store, err := modelstore.Open(e.cfg.ModelsDB)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, *o.store, language(*o.language, e), m); err != nil {
			return err
		}
		e.logger.Info("model stored", "db", e.cfg.ModelsDB, "name", *o.store, "words", m.Len())
	}
	return nil
}

func cmdTrainTruecase(args []string) error {
	fs := flag.NewFlagSet("train-truecase", flag.ContinueOnError)
	c := addCommon(fs)
	out := addModelOutput(fs)
	asr := fs.Bool("asr", false, "train a case-insensitive (ASR) model")
	first := fs.Bool("first", false, "also learn from the first token of a sentence when it is not capitalized")
	counts := fs.String("counts", "", "also write the partial casing table (gob) to this file, for merge-truecase")
	offset := fs.Int("line-offset", 0, "line number of the first input line within the whole corpus")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lines, err := pipeline.ReadLines(e.in)
	if err != nil {
		return err
	}
	opts := truecase.TrainOptions{PossiblyUseFirstToken: *first, ASR: *asr}

	table, err := pipeline.TrainCounts(ctx, e.pool, lines, *offset, opts)
	if err != nil {
		return err
	}
	e.logger.Info("casing table learned", "lines", len(lines), "words", table.Len())

	if *counts != "" {
		if err := truecase.SaveCounts(table, *counts); err != nil {
			return err
		}
		e.logger.Info("partial table written", "path", *counts)
	}
	return out.write(ctx, e, table.Model(*asr))
}

func cmdMergeTruecase(args []string) error {
	fs := flag.NewFlagSet("merge-truecase", flag.ContinueOnError)
	c := addCommon(fs)
	out := addModelOutput(fs)
	asr := fs.Bool("asr", false, "finalize as a case-insensitive (ASR) model")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("merge-truecase: no partial tables given")
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.close()

	tables := make([]*truecase.Counts, 0, fs.NArg())
	for _, path := range fs.Args() {
		t, err := truecase.LoadCounts(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		tables = append(tables, t)
	}
	merged := truecase.MergeCounts(tables...)
	e.logger.Info("casing tables merged", "tables", len(tables), "words", merged.Len())
	return out.write(context.Background(), e, merged.Model(*asr))
}

func cmdTruecase(args []string) error {
	fs := flag.NewFlagSet("truecase", flag.ContinueOnError)
	c := addCommon(fs)
	path := fs.String("model", "", "casing model file")
	name := fs.String("name", "", "casing model name in the models database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*path == "") == (*name == "") {
		return errors.New("truecase: exactly one of -model or -name is required")
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.close()

	var m *truecase.Model
	if *path != "" {
		m, err = truecase.LoadFile(*path)
	} else {
		m, err = loadStored(e.cfg.ModelsDB, *name)
	}
	if err != nil {
		return err
	}
	e.logger.Debug("casing model loaded", "words", m.Len(), "asr", m.ASR())
	return runFilter("truecase", c, e, truecase.New(m).TruecaseString)
}

func loadStored(db, name string) (*truecase.Model, error) {
	store, err := modelstore.Open(db)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(context.Background(), name)
}

func cmdModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	c := addCommon(fs)
	del := fs.String("delete", "", "delete the model stored under this name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.close()

	store, err := modelstore.Open(e.cfg.ModelsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if *del != "" {
		if err := store.Delete(ctx, *del); err != nil {
			return err
		}
		e.logger.Info("model deleted", "db", e.cfg.ModelsDB, "name", *del)
		return nil
	}
	infos, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if _, err := fmt.Fprintf(e.out, "%s\t%s\t%d\tasr=%t\n", info.Name, info.Language, info.Words, info.ASR); err != nil {
			return err
		}
	}
	return nil
}
