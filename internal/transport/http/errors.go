package http

import (
	"errors"
	"log"
	"net/http"

	"philosophers-service/internal/auth"
	"philosophers-service/internal/domain"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// exception is the error shape of a single call inside an AJAX batch or WebSocket frame.
type exception struct {
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

const (
	codeInvalidTransition   = "invalidtransition"
	codeAlreadyFinished     = "alreadyfinished"
	codeNoQuestionAvailable = "noquestionavailable"
	codeNotFound            = "notfound"
	codePermissionDenied    = "permissiondenied"
	codeInvalidInput        = "invalidinput"
	codeUnauthorized        = "unauthorized"
	codeInternal            = "internal"
)

// classify maps an error to its wire code and HTTP status.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return codeInvalidTransition, http.StatusConflict
	case errors.Is(err, domain.ErrAlreadyFinished):
		return codeAlreadyFinished, http.StatusConflict
	case errors.Is(err, domain.ErrNoQuestionAvailable):
		return codeNoQuestionAvailable, http.StatusNotFound
	case errors.Is(err, domain.ErrNotFound):
		return codeNotFound, http.StatusNotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		return codePermissionDenied, http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput):
		return codeInvalidInput, http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return codeUnauthorized, http.StatusUnauthorized
	default:
		return codeInternal, http.StatusInternalServerError
	}
}

func newException(err error) exception {
	code, _ := classify(err)
	msg := err.Error()
	if code == codeInternal {
		log.Printf("request error: %v", err)
		msg = http.StatusText(http.StatusInternalServerError)
	}
	return exception{ErrorCode: code, Message: msg}
}

func jsonError(c *gin.Context, status int, message ...string) {
	msg := ""
	if len(message) > 0 {
		msg = message[0]
	}
	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg,
	})
}

// ErrorHandler recovers panics and renders errors attached to the context.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic recovered: %v", err)
				jsonError(c, http.StatusInternalServerError)
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			_, status := classify(err)
			if status == http.StatusInternalServerError {
				log.Printf("request error: %v", err)
				jsonError(c, status)
				return
			}
			jsonError(c, status, err.Error())
		}
	}
}
