// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"hash/fnv"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Pool runs submitted tasks on a fixed set of workers. Tasks sharing a key
// land on the same worker, so they run one at a time in submission order.

type Task func(ctx context.Context) error

var (
	ErrNilTask = errors.New("nil task")
	ErrStopped = errors.New("worker pool stopped")
)

type Pool struct {
	wg     sync.WaitGroup
	shards []chan Task
	quit   chan struct{}
	once   sync.Once
	log    *zerolog.Logger
}

func NewPool(workers, queue int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = 16
	}
	shards := make([]chan Task, workers)
	for i := range shards {
		shards[i] = make(chan Task, queue)
	}
	l := logger.With().Str("component", "worker_pool").Logger()
	return &Pool{shards: shards, quit: make(chan struct{}), log: &l}
}

func (p *Pool) Size() int { return len(p.shards) }

func (p *Pool) Start(ctx context.Context) {
	for i := range p.shards {
		p.wg.Add(1)
		go func(id int, jobs <-chan Task) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-jobs:
					p.run(ctx, id, task)
				}
			}
		}(i, p.shards[i])
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Error().Err(err).Int("worker", id).Msg("task error")
	}
}

// Stop signals workers to exit and waits for running tasks. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit queues task on the shard owning key. It blocks while that shard is
// full, until ctx is done or the pool stops.
func (p *Pool) Submit(ctx context.Context, key string, task Task) error {
	if task == nil {
		return ErrNilTask
	}
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	select {
	case p.shards[p.shard(key)] <- task:
		return nil
	case <-p.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.shards)))
}
