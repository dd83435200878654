package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/tools/sqldatabase"
	"github.com/tmc/langchaingo/tools/sqldatabase/sqlite3"
)

type AgentResult struct {
	Output string
}

// Agent answers a natural language question about the loaded dataset.
type Agent interface {
	Run(ctx context.Context, question string) (AgentResult, error)
}

type AgentModelConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIModel(cfg AgentModelConfig) (llms.Model, error) {
	opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create OpenAI client: %w", err)
	}
	return llm, nil
}

// SQLAgent has the model write a SQL query against the dataset store, runs it
// and has the model phrase the answer from the query result.
type SQLAgent struct {
	db    *sqldatabase.SQLDatabase
	chain *chains.SQLDatabaseChain
}

var _ Agent = (*SQLAgent)(nil)

const registryTable = "dataset_loads"

// readOnlyEngine only runs a single SELECT statement. The store is also
// opened with mode=ro, so a write that slips through fails in sqlite.
type readOnlyEngine struct {
	sqldatabase.Engine
}

var errNotReadOnly = errors.New("only a single SELECT statement may be run against the dataset")

func isReadOnlyQuery(query string) bool {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	if strings.Contains(query, ";") {
		return false
	}
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
	default:
		return false
	}
	for _, field := range fields {
		switch strings.ToUpper(strings.Trim(field, "(),")) {
		case "INSERT", "UPDATE", "DELETE", "REPLACE", "DROP", "ALTER", "CREATE", "ATTACH", "DETACH", "PRAGMA", "VACUUM", "REINDEX":
			return false
		}
	}
	return true
}

func (e readOnlyEngine) Query(ctx context.Context, query string, args ...any) ([]string, [][]string, error) {
	if !isReadOnlyQuery(query) {
		return nil, nil, fmt.Errorf("%w: %q", errNotReadOnly, query)
	}
	return e.Engine.Query(ctx, query, args...)
}

func readOnlyDSN(storePath string) string {
	return "file:" + storePath + "?mode=ro"
}

func NewSQLAgent(llm llms.Model, storePath string, topK int) (*SQLAgent, error) {
	engine, err := sqlite3.NewSQLite3(readOnlyDSN(storePath))
	if err != nil {
		return nil, fmt.Errorf("error opening dataset store %s: %w", storePath, err)
	}

	db, err := sqldatabase.NewSQLDatabase(readOnlyEngine{Engine: engine}, map[string]struct{}{registryTable: {}})
	if err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("error opening dataset store %s: %w", storePath, err)
	}

	return &SQLAgent{
		db:    db,
		chain: chains.NewSQLDatabaseChain(llm, topK, db),
	}, nil
}

func (a *SQLAgent) Run(ctx context.Context, question string) (AgentResult, error) {
	out, err := chains.Call(ctx, a.chain, map[string]any{"query": question})
	if err != nil {
		return AgentResult{}, upstreamFromAgent(ctx, err)
	}

	result, ok := out["result"].(string)
	if !ok {
		return AgentResult{}, &UpstreamError{Reason: "the query agent returned a malformed result"}
	}

	result = strings.TrimSpace(result)
	if result == "" {
		return AgentResult{}, &UpstreamError{Reason: "the query agent returned an empty answer"}
	}

	return AgentResult{Output: result}, nil
}

func (a *SQLAgent) Close() error {
	return a.db.Close()
}

func upstreamFromAgent(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &UpstreamError{Reason: "the model did not respond in time", Retryable: true, Err: err}
	}
	return &UpstreamError{Reason: "the query agent could not answer the question", Err: err}
}
