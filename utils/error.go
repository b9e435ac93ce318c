package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Code:    "INTERNAL",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.String("details", details))
	resp := ErrorResponse{Message: message}
	if details != "" {
		resp.Details = map[string]interface{}{"reason": details}
	}
	c.JSON(status, resp)
}

// RespondError writes err using the AppError envelope. Internal failures are
// logged in full and reported without their cause.
func RespondError(c *gin.Context, err error) {
	var ae *AppError
	if !errors.As(err, &ae) {
		ae = NewInternalError("unexpected error", err)
	}
	status := HTTPStatus(ae.Kind)

	logger := GetLogger()
	if status >= http.StatusInternalServerError {
		logger.Error(ae.Message, zap.String("code", ae.Code), zap.Error(ae.Err), zap.String("path", c.Request.URL.Path))
	} else {
		logger.Debug(ae.Message, zap.String("code", ae.Code), zap.String("path", c.Request.URL.Path))
	}

	resp := ErrorResponse{Message: ae.Message, Code: ae.Code, Details: ae.Details}
	if ae.Kind == KindInternal {
		resp.Details = nil
	}
	c.AbortWithStatusJSON(status, resp)
}
