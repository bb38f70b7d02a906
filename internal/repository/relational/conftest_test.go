package relational

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kailas-cloud/kwsearch/internal/db/gormdb"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gormdb.Open(gormdb.Config{
		Driver:       gormdb.DriverSQLite,
		DSN:          fmt.Sprintf("file:relational_%d?mode=memory&cache=shared", time.Now().UnixNano()),
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gormdb.Close(gdb) })
	require.NoError(t, Migrate(gdb))
	return gdb
}

func testOperator(t *testing.T, id, name string, paths ...string) domop.Operator {
	t.Helper()
	op, err := domop.New(name, paths)
	require.NoError(t, err)
	return op.WithIdentity(id, 0)
}

func testQuery(id, owner, name string, createdAt int64) persisted.Query {
	return persisted.Reconstruct(id, owner, query.Eq("doc.author", "Smith"), []string{"t1"}, name, createdAt)
}
