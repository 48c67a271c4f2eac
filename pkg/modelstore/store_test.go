package modelstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/textprep/pkg/truecase"
)

var corpus = []string{
	"the cat sat on the mat .",
	"The dog saw Paris .",
	"We love Paris and the USA .",
	"in paris , the weather is fine .",
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "models.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	infos, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List on empty db: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected 0 models, got %d", len(infos))
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	m := truecase.Train(corpus, truecase.TrainOptions{})

	if err := s.Save(ctx, "news", "en", m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "news")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(truecase.Marshal(got)) != string(truecase.Marshal(m)) {
		t.Fatalf("loaded model differs:\n%s\nwant:\n%s", truecase.Marshal(got), truecase.Marshal(m))
	}
}

func TestLoadBypassesCacheAfterReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.db")
	ctx := context.Background()
	m := truecase.Train(corpus, truecase.TrainOptions{ASR: true})

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(ctx, "asr", "en", m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Load(ctx, "asr")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.ASR() {
		t.Fatal("expected ASR model")
	}
	if got.Len() != m.Len() {
		t.Fatalf("expected %d records, got %d", m.Len(), got.Len())
	}
}

func TestSaveReplaces(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "m", "en", truecase.Train(corpus[:1], truecase.TrainOptions{})); err != nil {
		t.Fatalf("Save: %v", err)
	}
	full := truecase.Train(corpus, truecase.TrainOptions{})
	if err := s.Save(ctx, "m", "fr", full); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 model, got %d", len(infos))
	}
	if infos[0].Language != "fr" || infos[0].Words != full.Len() {
		t.Fatalf("unexpected info %+v", infos[0])
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := tempStore(t)
	_, err := s.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	s := tempStore(t)
	_, err := s.db.Exec(`INSERT INTO casing_models (name, words, data, created_at, updated_at)
		VALUES ('bad', 0, ?, 0, 0)`, []byte("# casing-model v9\n"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err = s.Load(context.Background(), "bad")
	if !errors.Is(err, truecase.ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, "m", "en", truecase.Train(corpus, truecase.TrainOptions{})); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, "m"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "m"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "m"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestList_Order(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	m := truecase.Train(corpus, truecase.TrainOptions{})
	for _, name := range []string{"z-last", "a-first"} {
		if err := s.Save(ctx, name, "en", m); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}
	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 models, got %d", len(infos))
	}
	if infos[0].Name != "a-first" {
		t.Fatalf("expected first model 'a-first', got %s", infos[0].Name)
	}
	if infos[0].Size == 0 || infos[0].UpdatedAt == 0 {
		t.Fatalf("expected size and timestamp, got %+v", infos[0])
	}
}

func TestSave_EmptyName(t *testing.T) {
	s := tempStore(t)
	if err := s.Save(context.Background(), "", "en", truecase.Train(corpus, truecase.TrainOptions{})); err == nil {
		t.Fatal("expected error for empty name")
	}
}
