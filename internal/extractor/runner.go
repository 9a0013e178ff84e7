package extractor

import (
	"context"
	"fmt"

	"github.com/dbsmedya/goextract/internal/database"
	"github.com/dbsmedya/goextract/internal/types"
)

// QueryExecutionError reports that the query could not be run against a
// staged database: connection refused, bad credentials, SQL error or a
// corrupt file all end up here.
type QueryExecutionError struct {
	Path  string
	Cause error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query failed for %s: %v", e.Path, e.Cause)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Cause
}

// Runner executes the batch query against staged copies.
type Runner struct {
	client database.Client
}

// NewRunner creates a Runner backed by client.
func NewRunner(client database.Client) *Runner {
	return &Runner{client: client}
}

// ConnectionFor builds the connection for a staged copy. The descriptor's
// host and credentials are used with the staging path, never the original.
func ConnectionFor(staged types.StagedCopy) database.ConnectionDescriptor {
	return database.ConnectionDescriptor{
		Host:             staged.Descriptor.Hostname,
		Path:             staged.StagingPath,
		User:             staged.Descriptor.Username,
		Password:         staged.Descriptor.Password,
		SuppressTriggers: true,
	}
}

// Execute runs query once against the staged copy. There is no retry.
func (r *Runner) Execute(ctx context.Context, staged types.StagedCopy, query string) (*database.ResultSet, error) {
	result, err := r.client.Query(ctx, ConnectionFor(staged), query)
	if err != nil {
		return nil, &QueryExecutionError{Path: staged.Descriptor.DatabasePath, Cause: err}
	}
	return result, nil
}
