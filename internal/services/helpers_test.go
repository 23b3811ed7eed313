package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/errors"
)

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected *AppError, got %v", err)
	require.Equal(t, code, appErr.Code, appErr.Message)
}
