package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"comics-blog/internal/storage"
)

type AgentFactory func(ctx context.Context) (Agent, error)

// GroundedBackend answers questions with an Agent over a dataset that is
// loaded exactly once. If the load fails the backend keeps returning the
// same DataLoadError.
type GroundedBackend struct {
	loader   *DatasetLoader
	source   storage.Source
	newAgent AgentFactory

	mu      sync.Mutex
	done    bool
	agent   Agent
	dataset Dataset
	err     error
	closers []io.Closer
}

var _ GroundedQueryBackend = (*GroundedBackend)(nil)

func NewGroundedBackend(loader *DatasetLoader, source storage.Source, newAgent AgentFactory) *GroundedBackend {
	return &GroundedBackend{
		loader:   loader,
		source:   source,
		newAgent: newAgent,
	}
}

// Init loads the dataset and builds the agent. Concurrent callers wait for
// the first one and all observe its result.
func (b *GroundedBackend) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return b.err
	}
	b.done = true

	dataset, err := b.loader.Load(ctx, b.source)
	if err != nil {
		slog.Error("grounded mode disabled, dataset could not be loaded", "source", b.source.String(), "error", err)
		b.err = err
		return err
	}
	b.dataset = dataset

	agent, err := b.newAgent(ctx)
	if err != nil {
		slog.Error("grounded mode disabled, agent could not be created", "error", err)
		b.err = &DataLoadError{Source: b.source.String(), Err: err}
		return b.err
	}
	b.agent = agent
	if closer, ok := agent.(io.Closer); ok {
		b.closers = append(b.closers, closer)
	}

	return nil
}

func (b *GroundedBackend) Answer(ctx context.Context, text string) (string, error) {
	if err := b.Init(ctx); err != nil {
		return "", err
	}

	result, err := b.agent.Run(ctx, text)
	if err != nil {
		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) {
			return "", err
		}
		return "", upstreamFromAgent(ctx, err)
	}

	return result.Output, nil
}

func (b *GroundedBackend) Dataset() Dataset {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dataset
}

// CloseWith registers an extra resource to release on Close, such as the
// handle of the dataset store.
func (b *GroundedBackend) CloseWith(closer io.Closer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closers = append(b.closers, closer)
}

func (b *GroundedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, closer := range b.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
