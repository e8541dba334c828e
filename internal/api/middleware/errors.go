package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greendrake/carads/internal/apperrors"
)

const genericErrorMsg = "Something went wrong, try again later"

// ErrorHandler translates the last error attached with c.Error into a status
// code and a {"msg": ...} body. Handlers attach the error and return.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := apperrors.StatusCode(err)
		msg := err.Error()
		if msg == "" {
			msg = genericErrorMsg
		}

		var appErr *apperrors.Error
		if status == http.StatusInternalServerError && !errors.As(err, &appErr) {
			log.Error("request failed", zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path), zap.Error(err))
		}
		c.JSON(status, gin.H{"msg": msg})
	}
}

// Recovery turns a panic into a 500 JSON response so one bad request never
// takes the process down.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", zap.Any("panic", r), zap.String("path", c.Request.URL.Path), zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": genericErrorMsg})
			}
		}()
		c.Next()
	}
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"msg": "Route does not exist"})
}
