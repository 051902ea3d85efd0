package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows credentials from origins; an empty list allows any origin.
func CORSMiddleware(origins ...string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{TraceHeader}
	corsConfig.MaxAge = 12 * time.Hour
	return cors.New(corsConfig)
}
