package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trip/pkg/utils"
)

// ErrorHandler writes the error envelope for the last error a handler recorded.
// verbose exposes raw errors and panic stacks to the client.
func ErrorHandler(logger *zap.Logger, verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if c.Writer.Written() {
			logger.Error("error after response was written",
				zap.String("trace_id", c.GetString("trace_id")), zap.Error(err))
			return
		}

		appErr := utils.HandleServiceError(c, err, verbose)
		if !appErr.IsOperational {
			logger.Error("unhandled error",
				zap.String("trace_id", c.GetString("trace_id")),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}
	}
}

// Recovery turns a panic into a recorded error for ErrorHandler.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if r == http.ErrAbortHandler {
					panic(r)
				}
				_ = c.Error(&utils.PanicError{Value: r, Stack: debug.Stack()})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFound answers unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(utils.NewAppError(fmt.Sprintf("Can't find %s on this server!", c.Request.URL.Path), http.StatusNotFound))
	}
}

// BodyLimit caps request bodies; multipart requests get their own limit.
func BodyLimit(jsonLimit, multipartLimit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			limit := jsonLimit
			if c.ContentType() == gin.MIMEMultipartPOSTForm {
				limit = multipartLimit
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
