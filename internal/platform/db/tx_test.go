package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *stubTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type stubStarter struct {
	tx   *stubTx
	opts pgx.TxOptions
	err  error
}

func (s *stubStarter) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	starter := &stubStarter{tx: &stubTx{}}
	require.NoError(t, WithTx(context.Background(), starter, func(pgx.Tx) error { return nil }))
	assert.True(t, starter.tx.committed)
	assert.False(t, starter.tx.rolledBack)
	assert.Equal(t, pgx.ReadCommitted, starter.opts.IsoLevel)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	starter := &stubStarter{tx: &stubTx{}}
	boom := errors.New("boom")
	err := WithTx(context.Background(), starter, func(pgx.Tx) error { return boom })
	assert.Same(t, boom, err)
	assert.True(t, starter.tx.rolledBack)
	assert.False(t, starter.tx.committed)
}

func TestWithTxWrapsBeginAndCommitErrors(t *testing.T) {
	err := WithTx(context.Background(), &stubStarter{err: errors.New("refused")}, func(pgx.Tx) error { return nil })
	assert.EqualError(t, err, "platform/db: begin tx: refused")

	starter := &stubStarter{tx: &stubTx{commitErr: errors.New("serialization")}}
	err = WithTx(context.Background(), starter, func(pgx.Tx) error { return nil })
	assert.EqualError(t, err, "platform/db: commit tx: serialization")
	assert.True(t, starter.tx.rolledBack)
}
