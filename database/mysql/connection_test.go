package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherpa-db/sherpa/config"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
)

func TestParseConfig(t *testing.T) {
	mc, err := ParseConfig(&config.DatabaseConfig{
		Host: "mysql.local", Port: 3306, Username: "app", Password: "pw", Database: "shop",
	})
	require.NoError(t, err)

	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "mysql.local:3306", mc.Addr)
	assert.Equal(t, "app", mc.User)
	assert.Equal(t, "shop", mc.DBName)
	assert.True(t, mc.ParseTime)
	assert.Contains(t, mc.FormatDSN(), "app:pw@tcp(mysql.local:3306)/shop?")
	assert.Contains(t, mc.FormatDSN(), "parseTime=true")
}

func TestParseConfigConnectionString(t *testing.T) {
	mc, err := ParseConfig(&config.DatabaseConfig{ConnectionString: "u:p@tcp(h:3307)/db"})
	require.NoError(t, err)
	assert.Equal(t, "h:3307", mc.Addr)
	assert.Equal(t, "db", mc.DBName)
	assert.True(t, mc.ParseTime)

	_, err = ParseConfig(&config.DatabaseConfig{ConnectionString: "not a dsn"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse MySQL DSN")
}

func stubOpen(t *testing.T, db *sql.DB) {
	t.Helper()
	original := openMySQLDB
	openMySQLDB = func(*mysql.Config) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openMySQLDB = original })
}

func TestNewConnection(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true), sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	stubOpen(t, db)
	mock.ExpectPing()

	conn, err := NewConnection(&config.DatabaseConfig{Host: "mysql.local", Port: 3306, Database: "shop"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, dbtypes.MySQL, conn.DatabaseType())

	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE active = ?").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(3)))
	rows, err := conn.Query(context.Background(), "SELECT COUNT(*) FROM users WHERE active = ?", true)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	mock.ExpectClose()
	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnectionFailures(t *testing.T) {
	_, err := NewConnection(&config.DatabaseConfig{ConnectionString: "not a dsn"}, logger.Nop())
	assert.True(t, dbtypes.IsConnectionError(err))

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	stubOpen(t, db)
	mock.ExpectPing().WillReturnError(errors.New("dial tcp: connection refused"))
	mock.ExpectClose()

	conn, err := NewConnection(&config.DatabaseConfig{Host: "mysql.local", Port: 3306, Database: "shop"}, logger.Nop())
	assert.Nil(t, conn)
	assert.True(t, dbtypes.IsConnectionError(err))
	assert.Contains(t, err.Error(), "connection: mysql:")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnectionNilLogger(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	stubOpen(t, db)
	mock.ExpectPing()

	var conn dbtypes.Interface
	require.NotPanics(t, func() {
		conn, err = NewConnection(&config.DatabaseConfig{Host: "mysql.local", Port: 3306, Database: "shop"}, nil)
	})
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
