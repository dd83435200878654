package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	calls  atomic.Int32
	output string
	err    error
	closed atomic.Bool
}

func (a *stubAgent) Run(ctx context.Context, question string) (AgentResult, error) {
	a.calls.Add(1)
	return AgentResult{Output: a.output}, a.err
}

func (a *stubAgent) Close() error {
	a.closed.Store(true)
	return nil
}

const titlesCSV = "title\nIron Man #1\nThor #1\n"

func TestGroundedBackendAnswer(t *testing.T) {
	loader, store, source, _ := setupLoader(t, titlesCSV)
	agent := &stubAgent{output: "Iron Man #1, Thor #1"}

	var built atomic.Int32
	backend := NewGroundedBackend(loader, source, func(ctx context.Context) (Agent, error) {
		built.Add(1)
		return agent, nil
	})

	gateway := NewGateway(nil, backend, GatewayOptions{})
	res := gateway.Handle(context.Background(), ChatMessage{Text: "list all titles", Mode: ModeGrounded})
	assert.True(t, res.Succeeded)
	assert.Equal(t, "Iron Man #1, Thor #1", res.AnswerText)

	res = gateway.Handle(context.Background(), ChatMessage{Text: "list all titles", Mode: ModeGrounded})
	assert.True(t, res.Succeeded)

	assert.EqualValues(t, 2, agent.calls.Load())
	assert.EqualValues(t, 1, built.Load())

	var rows int64
	require.NoError(t, store.Table("comics").Count(&rows).Error)
	assert.EqualValues(t, 2, rows)
	assert.EqualValues(t, 2, backend.Dataset().RowCount)

	require.NoError(t, backend.Close())
	assert.True(t, agent.closed.Load())
}

func TestGroundedBackendInitOnce(t *testing.T) {
	loader, _, source, _ := setupLoader(t, titlesCSV)

	var built atomic.Int32
	backend := NewGroundedBackend(loader, source, func(ctx context.Context) (Agent, error) {
		built.Add(1)
		return &stubAgent{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, backend.Init(context.Background()))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, built.Load())
}

func TestGroundedBackendDataLoadFailure(t *testing.T) {
	loader, _, source, _ := setupLoader(t, "")

	var built atomic.Int32
	backend := NewGroundedBackend(loader, source, func(ctx context.Context) (Agent, error) {
		built.Add(1)
		return &stubAgent{}, nil
	})

	var dataErr *DataLoadError
	require.ErrorAs(t, backend.Init(context.Background()), &dataErr)

	_, err := backend.Answer(context.Background(), "list all titles")
	require.ErrorAs(t, err, &dataErr)
	assert.EqualValues(t, 0, built.Load())
}

func TestGroundedBackendAgentFailure(t *testing.T) {
	loader, _, source, _ := setupLoader(t, titlesCSV)
	agent := &stubAgent{err: errors.New("sql: no such column: rating")}
	backend := NewGroundedBackend(loader, source, func(ctx context.Context) (Agent, error) {
		return agent, nil
	})

	_, err := backend.Answer(context.Background(), "best rated?")
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "the query agent could not answer the question", upstreamErr.Reason)
}
