// Package execution submits SQL statements to Athena, waits for a terminal
// state under a bounded polling budget, and materializes the fetched rows.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/lotquery/lotquery/internal/observability"
)

// AthenaAPI is the subset of the Athena client the execution path needs.
type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// ExecutionError reports an engine-side FAILED or CANCELLED terminal state.
type ExecutionError struct {
	State  string
	Reason string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution %s: %s", e.State, e.Reason)
}

// TimeoutError reports an exhausted polling budget with no terminal state.
type TimeoutError struct {
	Attempts  int
	LastState string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query still %s after %d status checks", e.LastState, e.Attempts)
}

type Config struct {
	Database        string
	OutputLocation  string
	PollInterval    time.Duration
	MaxPollAttempts int
}

type Client struct {
	api    AthenaAPI
	cfg    Config
	logger *slog.Logger
}

func NewClient(api AthenaAPI, cfg Config, logger *slog.Logger) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("athena api is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.OutputLocation == "" {
		return nil, fmt.Errorf("output location is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 15
	}
	return &Client{api: api, cfg: cfg, logger: logger}, nil
}

// Execute runs one statement end to end: submit, poll until terminal or the
// attempt budget runs out, then fetch the full result set. Result artifacts
// written to the output location are left in place; the retention sweeper
// handles those out of band.
func (c *Client) Execute(ctx context.Context, sql string) (Table, error) {
	start := time.Now()

	submitted, err := c.api.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString:           aws.String(sql),
		QueryExecutionContext: &types.QueryExecutionContext{Database: aws.String(c.cfg.Database)},
		ResultConfiguration:   &types.ResultConfiguration{OutputLocation: aws.String(c.cfg.OutputLocation)},
	})
	if err != nil {
		observability.ObserveEngineQuery("submit_error", 0, time.Since(start))
		return Table{}, fmt.Errorf("submit query: %w", err)
	}
	jobID := aws.ToString(submitted.QueryExecutionId)

	state := types.QueryExecutionStateQueued
	reason := ""
	attempts := 0
	for attempts < c.cfg.MaxPollAttempts {
		status, err := c.api.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(jobID),
		})
		attempts++
		if err != nil {
			observability.ObserveEngineQuery("poll_error", attempts, time.Since(start))
			return Table{}, fmt.Errorf("poll query status: %w", err)
		}
		state = status.QueryExecution.Status.State
		reason = aws.ToString(status.QueryExecution.Status.StateChangeReason)
		if isTerminal(state) {
			break
		}
		select {
		case <-ctx.Done():
			observability.ObserveEngineQuery("cancelled", attempts, time.Since(start))
			return Table{}, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}

	if !isTerminal(state) {
		observability.ObserveEngineQuery("timeout", attempts, time.Since(start))
		return Table{}, &TimeoutError{Attempts: attempts, LastState: string(state)}
	}
	if state != types.QueryExecutionStateSucceeded {
		observability.ObserveEngineQuery("failed", attempts, time.Since(start))
		if reason == "" {
			reason = "unknown reason"
		}
		return Table{}, &ExecutionError{State: string(state), Reason: reason}
	}

	results, err := c.api.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(jobID),
	})
	if err != nil {
		observability.ObserveEngineQuery("fetch_error", attempts, time.Since(start))
		return Table{}, fmt.Errorf("fetch query results: %w", err)
	}

	table := Materialize(results.ResultSet.Rows)
	observability.ObserveEngineQuery("succeeded", attempts, time.Since(start))
	if c.logger != nil {
		c.logger.DebugContext(ctx, "query executed",
			slog.String("job_id", jobID),
			slog.Int("poll_attempts", attempts),
			slog.Int("rows", len(table.Rows)),
		)
	}
	return table, nil
}

func isTerminal(state types.QueryExecutionState) bool {
	switch state {
	case types.QueryExecutionStateSucceeded, types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
		return true
	default:
		return false
	}
}
