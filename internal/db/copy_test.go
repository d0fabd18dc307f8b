package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "trips", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"trips"}, []string{"vendor_id", "fare_amount"}).WillReturnResult(3)

	rows := [][]any{{"1", 10.0}, {"2", 12.5}, {"1", 7.0}}
	n, err := CopyFrom(context.Background(), mock, "trips", []string{"vendor_id", "fare_amount"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"trips"}, []string{"vendor_id"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"1"}}
	_, err = CopyFrom(context.Background(), mock, "trips", []string{"vendor_id"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO trips")
	assert.NoError(t, mock.ExpectationsWereMet())
}
