package dbutil

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM t WHERE a = ? AND b = ?", []interface{}{1, 2})
	require.Equal(t, "SELECT id FROM t WHERE a = $1 AND b = $2", query)
	require.Equal(t, []interface{}{1, 2}, args)
}

func TestFinalizeRewritesMySQLLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM t WHERE a = ? LIMIT ?,?", []interface{}{"x", 10, 5})
	require.Equal(t, "SELECT id FROM t WHERE a = $1 LIMIT $2 OFFSET $3", query)
	// gendry emits (offset, count); postgres wants (count, offset).
	require.Equal(t, []interface{}{"x", 5, 10}, args)
}

func TestIsProgramLimit(t *testing.T) {
	require.True(t, IsProgramLimit(&pq.Error{Code: "54000"}))
	require.True(t, IsProgramLimit(&pq.Error{Code: "54023"}))
	require.False(t, IsProgramLimit(&pq.Error{Code: "23505"}))
	require.False(t, IsProgramLimit(nil))
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "54000"}))
}
