// internal/api/response.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crew-match-workers/internal/common/errors"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func SendError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, Response{
		Success: false,
		Error:   &Error{Code: code, Message: message, Details: details},
	})
}

// SendMatchError maps a matching error onto its HTTP status.
func SendMatchError(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	_ = c.Error(err)
	SendError(c, errors.HTTPStatus(stdErr.Code), string(stdErr.Code), stdErr.Message, stdErr.Details)
}

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, string(errors.ErrCodeInvalidMatchInput), message, "")
}
