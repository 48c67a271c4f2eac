// CLAUDE:SUMMARY Gob snapshots of partial casing tables so partitions trained in separate processes can be merged later.
package truecase

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// EncodeCounts writes c as gob.
func EncodeCounts(w io.Writer, c *Counts) error {
	if err := gob.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}

// DecodeCounts reads a gob partial table.
func DecodeCounts(r io.Reader) (*Counts, error) {
	c := NewCounts()
	if err := gob.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("%w: decode gob: %v", ErrModelLoad, err)
	}
	if c.Words == nil {
		c.Words = make(map[string]map[string]VariantCount)
	}
	return c, nil
}

// SaveCounts serializes c to a gob file at path.
func SaveCounts(c *Counts, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()
	return EncodeCounts(f, c)
}

// LoadCounts reads a partial table written by SaveCounts.
func LoadCounts(path string) (*Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()
	return DecodeCounts(f)
}
