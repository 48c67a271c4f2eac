// CLAUDE:SUMMARY Worker pool over ants: order-preserving parallel line mapping and partitioned truecaser training with a single merge step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/hazyhaar/textprep/pkg/truecase"
)

// chunksPerWorker splits work finer than one chunk per worker so a slow
// chunk does not hold the whole batch back.
const chunksPerWorker = 4

// Pool runs line-level work on a fixed number of goroutines.
type Pool struct {
	pool *ants.Pool
	size int
}

// NewPool returns a pool of size workers.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{pool: p, size: size}, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Release stops the workers.
func (p *Pool) Release() { p.pool.Release() }

type span struct{ lo, hi int }

// split cuts n items into at most parts contiguous spans.
func split(n, parts int) []span {
	if n == 0 {
		return nil
	}
	if parts > n {
		parts = n
	}
	if parts < 1 {
		parts = 1
	}
	spans := make([]span, 0, parts)
	size, rem := n/parts, n%parts
	lo := 0
	for i := 0; i < parts; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		spans = append(spans, span{lo, hi})
		lo = hi
	}
	return spans
}

// run executes job once per span on the pool and waits for all of them.
func (p *Pool) run(ctx context.Context, spans []span, job func(i int, s span)) error {
	var wg sync.WaitGroup
	var submitErr error
	for i, s := range spans {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		wg.Add(1)
		i, s := i, s
		if err := p.pool.Submit(func() {
			defer wg.Done()
			job(i, s)
		}); err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submit task: %w", err)
			break
		}
	}
	wg.Wait()
	if submitErr != nil {
		return submitErr
	}
	return ctx.Err()
}

// Map applies fn to every line on the pool. The output keeps input order
// whatever order the workers finish in. Workers stop picking up lines once
// ctx is done.
func Map[T any](ctx context.Context, p *Pool, lines []string, fn func(string) T) ([]T, error) {
	out := make([]T, len(lines))
	err := p.run(ctx, split(len(lines), p.size*chunksPerWorker), func(_ int, s span) {
		for i := s.lo; i < s.hi; i++ {
			if ctx.Err() != nil {
				return
			}
			out[i] = fn(lines[i])
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TrainCounts learns partial casing tables over one partition per worker
// and merges them. Line numbers start at firstLine and partitions keep
// their global numbers, so the result equals single-threaded training.
func TrainCounts(ctx context.Context, p *Pool, lines []string, firstLine int, opts truecase.TrainOptions) (*truecase.Counts, error) {
	spans := split(len(lines), p.size)
	partials := make([]*truecase.Counts, len(spans))
	err := p.run(ctx, spans, func(i int, s span) {
		partials[i] = truecase.TrainCounts(lines[s.lo:s.hi], firstLine+s.lo, opts)
	})
	if err != nil {
		return nil, err
	}
	return truecase.MergeCounts(partials...), nil
}

// Train is TrainCounts followed by model finalization.
func Train(ctx context.Context, p *Pool, lines []string, opts truecase.TrainOptions) (*truecase.Model, error) {
	c, err := TrainCounts(ctx, p, lines, 0, opts)
	if err != nil {
		return nil, err
	}
	return c.Model(opts.ASR), nil
}
