// CLAUDE:SUMMARY Casing model text format: versioned header, one record per word (best variant first, optional #SI flag), Moses-compatible reader.
package truecase

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrModelLoad is wrapped by every error returned while reading a model.
var ErrModelLoad = errors.New("cannot load casing model")

const (
	headerPrefix = "# casing-model"
	formatV1     = "v1"
	siMarker     = "#SI"
)

// WriteTo writes the model in text form. The output reads back with
// ReadModel into a model with identical lookups.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(s string) error {
		k, err := bw.WriteString(s)
		n += int64(k)
		return err
	}

	if err := write(fmt.Sprintf("%s %s asr=%t\n", headerPrefix, formatV1, m.asr)); err != nil {
		return n, err
	}
	var line strings.Builder
	for _, r := range m.records {
		line.Reset()
		for i, v := range r.Variants {
			if i > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(v.Form)
			if i == 0 {
				fmt.Fprintf(&line, " (%s/%s)", v.Weight, r.Total())
			} else {
				fmt.Fprintf(&line, " (%s)", v.Weight)
			}
		}
		if r.SentenceInitial {
			line.WriteString(" " + siMarker)
		}
		line.WriteByte('\n')
		if err := write(line.String()); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Marshal returns the text form of m.
func Marshal(m *Model) []byte {
	var buf bytes.Buffer
	m.WriteTo(&buf)
	return buf.Bytes()
}

// ReadModel parses a model written by WriteTo. Files without the header
// are read as Moses truecase models: the sentence-initial flag is derived
// from the best casing and ASR is off. Any malformed line fails the whole
// read with ErrModelLoad.
func ReadModel(r io.Reader) (*Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		records   []Record
		seen      = make(map[string]bool)
		asr       bool
		versioned bool
		lineNo    int
	)
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if lineNo == 1 && strings.HasPrefix(text, headerPrefix) {
			var err error
			if asr, err = parseHeader(text); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
			}
			versioned = true
			continue
		}
		rec, err := parseRecord(text, versioned)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrModelLoad, lineNo, err)
		}
		if seen[rec.Word] {
			return nil, fmt.Errorf("%w: line %d: duplicate word %q", ErrModelLoad, lineNo, rec.Word)
		}
		seen[rec.Word] = true
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	if !versioned && len(records) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrModelLoad)
	}
	return newModel(records, asr), nil
}

// Unmarshal parses the text form of a model.
func Unmarshal(data []byte) (*Model, error) {
	return ReadModel(bytes.NewReader(data))
}

func parseHeader(text string) (asr bool, err error) {
	f := strings.Fields(strings.TrimPrefix(text, headerPrefix))
	if len(f) != 2 || f[0] != formatV1 || !strings.HasPrefix(f[1], "asr=") {
		return false, fmt.Errorf("bad header %q", text)
	}
	asr, err = strconv.ParseBool(strings.TrimPrefix(f[1], "asr="))
	if err != nil {
		return false, fmt.Errorf("bad header %q: %v", text, err)
	}
	return asr, nil
}

func parseRecord(text string, versioned bool) (Record, error) {
	f := strings.Fields(text)
	flagged := false
	if len(f) > 0 && f[len(f)-1] == siMarker {
		if !versioned {
			return Record{}, fmt.Errorf("unexpected %s marker", siMarker)
		}
		flagged = true
		f = f[:len(f)-1]
	}
	if len(f) < 2 || len(f)%2 != 0 {
		return Record{}, fmt.Errorf("want form/count pairs, got %d fields", len(f))
	}

	var r Record
	for i := 0; i < len(f); i += 2 {
		count := f[i+1]
		if !strings.HasPrefix(count, "(") || !strings.HasSuffix(count, ")") {
			return Record{}, fmt.Errorf("bad count %q", count)
		}
		count = count[1 : len(count)-1]
		if i == 0 {
			slash := strings.IndexByte(count, '/')
			if slash < 0 {
				return Record{}, fmt.Errorf("best count %q lacks a total", count)
			}
			if _, err := parseWeight(count[slash+1:]); err != nil {
				return Record{}, err
			}
			count = count[:slash]
		}
		w, err := parseWeight(count)
		if err != nil {
			return Record{}, err
		}
		r.Variants = append(r.Variants, Variant{Form: f[i], Weight: w})
	}
	r.Word = fold(r.Variants[0].Form)
	if versioned {
		r.SentenceInitial = flagged
	} else {
		r.SentenceInitial = !hasUpper(r.Best())
	}
	return r, nil
}

func parseWeight(s string) (Weight, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("bad count %q", s)
	}
	return Weight(math.Round(v * 10)), nil
}

// LoadFile reads a model from path.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	defer f.Close()
	return ReadModel(f)
}

// SaveFile writes m to path.
func SaveFile(m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if _, err := m.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write model file: %w", err)
	}
	return f.Close()
}
