package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estatehub/internal/handlers"
	"estatehub/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	tokens middleware.SessionVerifier,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	listingHandler *handlers.ListingHandler,
) *gin.Engine {
	requireAuth := middleware.AuthMiddleware(tokens)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// ---- auth (public, кроме check-auth)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/google", authHandler.Google)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.GET("/check-auth", requireAuth, authHandler.CheckAuth)
	}

	// USERS
	users := api.Group("/users", requireAuth)
	{
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", middleware.RequireSelf("id"), userHandler.UpdateUser)
		users.DELETE("/:id", middleware.RequireSelf("id"), userHandler.DeleteUser)
		users.GET("/:id/listings", middleware.RequireSelf("id"), userHandler.ListUserListings)
	}

	// LISTINGS
	listings := api.Group("/listings")
	{
		listings.GET("", listingHandler.Search)
		listings.GET("/:id", listingHandler.Get)
		listings.GET("/:id/owner", requireAuth, listingHandler.Owner)
		listings.POST("", requireAuth, listingHandler.Create)
		listings.PUT("/:id", requireAuth, listingHandler.Update)
		listings.DELETE("/:id", requireAuth, listingHandler.Delete)
	}

	return r
}
