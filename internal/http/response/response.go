package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/floortrack/floortrack-backend/internal/platform/apierr"
)

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

// RespondServiceError maps an *apierr.Error onto the envelope; anything else
// becomes a 500.
func RespondServiceError(c *gin.Context, err error) {
	var aerr *apierr.Error
	if errors.As(err, &aerr) {
		status := aerr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		RespondError(c, status, aerr.Code, aerr)
		return
	}
	RespondError(c, http.StatusInternalServerError, "", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
