package dashboard

import (
	"errors"
	"net/http"

	"github.com/dalemusser/stratadash/internal/app/system/editor"
	"github.com/dalemusser/stratadash/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// writeError maps domain errors to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if fields, ok := editor.ValidationFields(err); ok {
		jsonutil.ValidationError(w, fields)
		return
	}

	var saveErr *editor.SaveError
	switch {
	case errors.As(err, &saveErr):
		jsonutil.Unavailable(w, err.Error(), true)
	case errors.Is(err, editor.ErrSessionNotFound), errors.Is(err, editor.ErrNotFound):
		jsonutil.NotFound(w, err.Error())
	case errors.Is(err, editor.ErrConflict):
		jsonutil.Conflict(w, err.Error())
	case errors.Is(err, editor.ErrInvalidState), errors.Is(err, editor.ErrClosed):
		jsonutil.Conflict(w, err.Error())
	case errors.Is(err, editor.ErrUnknownWidget), errors.Is(err, editor.ErrUnknownAction):
		jsonutil.BadRequest(w, err.Error())
	default:
		h.logger.Error("dashboard request failed", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
	}
}
