package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goextract/internal/database"
	"github.com/dbsmedya/goextract/internal/types"
)

type recordingClient struct {
	conns   []database.ConnectionDescriptor
	queries []string
	result  *database.ResultSet
	err     error
}

func (c *recordingClient) Query(_ context.Context, conn database.ConnectionDescriptor, query string) (*database.ResultSet, error) {
	c.conns = append(c.conns, conn)
	c.queries = append(c.queries, query)
	return c.result, c.err
}

func stagedCopy() types.StagedCopy {
	return types.StagedCopy{
		Descriptor: types.DatabaseDescriptor{
			Hostname:     "localhost",
			DatabasePath: "/data/siteA/db1.fdb",
			Username:     "SYSDBA",
			Password:     "masterkey",
		},
		StagingPath: "/tmp/goextract/run-1/db1.fdb",
	}
}

func TestConnectionFor(t *testing.T) {
	conn := ConnectionFor(stagedCopy())

	assert.Equal(t, "localhost", conn.Host)
	assert.Equal(t, "/tmp/goextract/run-1/db1.fdb", conn.Path, "must connect to the staged copy")
	assert.Equal(t, "SYSDBA", conn.User)
	assert.Equal(t, "masterkey", conn.Password)
	assert.True(t, conn.SuppressTriggers)
	assert.Equal(t, "localhost:/tmp/goextract/run-1/db1.fdb", conn.DSN())
}

func TestRunner_Execute(t *testing.T) {
	client := &recordingClient{
		result: &database.ResultSet{Columns: []string{"ID"}, Rows: [][]interface{}{{int64(1)}}},
	}

	result, err := NewRunner(client).Execute(context.Background(), stagedCopy(), "SELECT ID FROM T")
	require.NoError(t, err)

	assert.Equal(t, client.result, result)
	require.Len(t, client.conns, 1)
	assert.Equal(t, "/tmp/goextract/run-1/db1.fdb", client.conns[0].Path)
	assert.Equal(t, []string{"SELECT ID FROM T"}, client.queries)
}

func TestRunner_ExecuteFailure(t *testing.T) {
	client := &recordingClient{err: errors.New("Your user name and password are not defined")}

	result, err := NewRunner(client).Execute(context.Background(), stagedCopy(), "SELECT 1")
	assert.Nil(t, result)
	require.Error(t, err)

	var queryErr *QueryExecutionError
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, "/data/siteA/db1.fdb", queryErr.Path)
	assert.ErrorIs(t, err, client.err)
	assert.Len(t, client.conns, 1, "no retry")
	assert.False(t, IsFatal(err))
}
