package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/parley/internal/conversation"
	"github.com/zulandar/parley/internal/observability"
	"github.com/zulandar/parley/internal/roles"
	"github.com/zulandar/parley/internal/session"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps a manager or store error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnsupportedRole),
		errors.Is(err, roles.ErrUnknownRole),
		errors.Is(err, session.ErrMessageTooLong),
		errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, conversation.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, conversation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrToolNotAvailable):
		return http.StatusForbidden
	case errors.Is(err, conversation.ErrInvalidTransition),
		errors.Is(err, session.ErrConversationArchived),
		errors.Is(err, conversation.ErrArchived):
		return http.StatusConflict
	case errors.Is(err, session.ErrGeneration):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// abortWithError writes err as JSON. Server errors are logged and their
// detail hidden from the client.
func (s *server) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request.Context(), s.log).
			Error("api: request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, errorBody{
		Error:     msg,
		RequestID: observability.RequestID(c.Request.Context()),
	})
}

// badRequest reports a malformed request body or query.
func (s *server) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{
		Error:     msg,
		RequestID: observability.RequestID(c.Request.Context()),
	})
}
