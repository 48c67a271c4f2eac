package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// DefaultBatch is the number of lines Stream hands to the pool at once.
const DefaultBatch = 1000

const maxLine = 16 * 1024 * 1024

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return sc
}

// ReadLines reads every line of r without the trailing newline.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := newScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}

// Stream reads r in batches of batch lines, maps each batch on p and
// writes the results to w, one per line, in input order. It returns the
// number of lines written.
func Stream(ctx context.Context, p *Pool, r io.Reader, w io.Writer, batch int, fn func(string) string) (int, error) {
	if batch <= 0 {
		batch = DefaultBatch
	}
	bw := bufio.NewWriter(w)
	sc := newScanner(r)
	n := 0

	flush := func(lines []string) error {
		out, err := Map(ctx, p, lines, fn)
		if err != nil {
			return err
		}
		for _, l := range out {
			if _, err := bw.WriteString(l); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if err := bw.WriteByte('\n'); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		n += len(out)
		return nil
	}

	buf := make([]string, 0, batch)
	for sc.Scan() {
		buf = append(buf, sc.Text())
		if len(buf) == batch {
			if err := flush(buf); err != nil {
				return n, err
			}
			buf = buf[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("read input: %w", err)
	}
	if len(buf) > 0 {
		if err := flush(buf); err != nil {
			return n, err
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("flush output: %w", err)
	}
	return n, nil
}
