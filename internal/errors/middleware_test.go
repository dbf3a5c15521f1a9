package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Behyna/giftledger/internal/api/contract"
	"github.com/Behyna/giftledger/internal/constants"
	apperrors "github.com/Behyna/giftledger/internal/errors"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		category constants.Category
	}{
		{
			name:     "service error",
			err:      service.NewServiceError(constants.ErrCodeAlreadyConfirmed, service.ErrAlreadyConfirmed),
			status:   http.StatusConflict,
			code:     constants.ErrCodeAlreadyConfirmed,
			category: constants.CategoryConflict,
		},
		{
			name:     "wrapped service error",
			err:      errors.Join(errors.New("context"), service.NewServiceError(constants.ErrCodeInstrumentNotFound, nil)),
			status:   http.StatusNotFound,
			code:     constants.ErrCodeInstrumentNotFound,
			category: constants.CategoryNotFound,
		},
		{
			name:     "fiber error keeps its status",
			err:      fiber.ErrMethodNotAllowed,
			status:   http.StatusMethodNotAllowed,
			code:     constants.ErrCodeInvalidRequestBody,
			category: constants.CategoryInvalidInput,
		},
		{
			name:     "anything else is internal",
			err:      errors.New("boom"),
			status:   http.StatusInternalServerError,
			code:     constants.ErrCodeOperationFailed,
			category: constants.CategoryInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: apperrors.ErrorHandler(zap.NewNop())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Track-Id", "track-9")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body contract.Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, body.Successful)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, string(tt.category), body.Category)
			assert.Equal(t, "track-9", body.TrackID)
		})
	}
}
