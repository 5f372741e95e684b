// Package front wires the public HTTP surface: authentication, lookup
// submission, record retrieval, and analytics.
package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/threatscope/threatscope/internal/analytics"
	"github.com/threatscope/threatscope/internal/config"
	"github.com/threatscope/threatscope/internal/http/api/front/handlers"
	"github.com/threatscope/threatscope/internal/lookup"
	"github.com/threatscope/threatscope/internal/models"
	"github.com/threatscope/threatscope/internal/security"
	"github.com/threatscope/threatscope/internal/store"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers public and authenticated front-end routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, service *lookup.Service, aggregator *analytics.Aggregator, lookupStore store.LookupStore) {
	if r == nil || db == nil {
		return
	}

	front := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	front.POST("/register", authHandler.Register)
	front.POST("/login", authHandler.Login)

	authed := front.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/profile", profileHandler.Get)

	threatHandler := handlers.NewThreatHandler(service, lookupStore)
	authed.POST("/threat/lookup", threatHandler.Submit)
	authed.GET("/lookups/:id", threatHandler.Get)

	analyticsHandler := handlers.NewAnalyticsHandler(aggregator)
	authed.GET("/analytics", analyticsHandler.Get)
}

// userAuthMiddleware validates user JWTs and loads the user into context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if user.Disabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user disabled"})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
