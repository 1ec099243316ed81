package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

func TestTranslatePgx(t *testing.T) {
	assert.NoError(t, translatePgx(nil))

	unique := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_username_key"}
	assert.ErrorIs(t, translatePgx(fmt.Errorf("insert: %w", unique)), domain.ErrDuplicate)

	assert.ErrorIs(t, translatePgx(context.DeadlineExceeded), domain.ErrUnavailable)

	other := errors.New("syntax error")
	assert.Equal(t, other, translatePgx(other))
}
