package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
)

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantSlug types.Slug
	}{
		{name: "bad request", err: services.ErrInvalidQuantity, wantCode: fiber.StatusBadRequest, wantSlug: types.InvalidInputSlug},
		{name: "wrapped bad request", err: fmt.Errorf("%w: name", services.ErrInvalidProject), wantCode: fiber.StatusBadRequest, wantSlug: types.InvalidInputSlug},
		{name: "nested project ID", err: fmt.Errorf("%w: \"a/b\"", services.ErrInvalidProjectID), wantCode: fiber.StatusBadRequest, wantSlug: types.InvalidInputSlug},
		{name: "unknown week", err: fmt.Errorf("%w: 2030-W01", services.ErrWeekNotFound), wantCode: fiber.StatusNotFound, wantSlug: types.NotFoundSlug},
		{name: "not found", err: fmt.Errorf("%w: P1", services.ErrProjectNotFound), wantCode: fiber.StatusNotFound, wantSlug: types.NotFoundSlug},
		{name: "conflict", err: services.ErrDuplicatePartID, wantCode: fiber.StatusConflict, wantSlug: types.ConflictSlug},
		{name: "version conflict", err: docstore.ErrVersionConflict, wantCode: fiber.StatusConflict, wantSlug: types.ConflictSlug},
		{name: "store closed", err: docstore.ErrClosed, wantCode: fiber.StatusServiceUnavailable, wantSlug: types.ServerErrorSlug},
		{name: "unknown", err: errors.New("disk full"), wantCode: fiber.StatusInternalServerError, wantSlug: types.ServerErrorSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondWithError(c, tt.err, ErrMsgInternal)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var slug types.SlugResponse
			require.NoError(t, json.Unmarshal(body, &slug))
			assert.Equal(t, tt.wantSlug, slug.Slug)
			assert.NotEmpty(t, slug.Error)
		})
	}
}
