package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the single error shape the API emits; Code is a stable
// machine-readable token, Message is for humans.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondUnprocessable reports a resource that was created but whose
// processing ended in a terminal failure state.
func RespondUnprocessable(c *gin.Context, payload any) {
	c.JSON(http.StatusUnprocessableEntity, payload)
}
