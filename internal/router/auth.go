package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/google-login", r.authHandler.GoogleLogin)
		auth.POST("/refresh", r.authHandler.RefreshToken)

		auth.POST("/register/send-otp", r.authHandler.SendRegistrationOtp)
		auth.POST("/register/verify", r.authHandler.VerifyRegistration)
		auth.POST("/register/resend-otp", r.authHandler.ResendRegistrationOtp)

		auth.POST("/forgot-password", r.passwordResetHandler.ForgotPassword)
		auth.POST("/forgot-password/verify-otp", r.passwordResetHandler.VerifyResetCode)
		auth.POST("/forgot-password/reset", r.passwordResetHandler.ResetPassword)

		// Protected routes (JWT authentication required)
		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("/me", r.authHandler.Me)
		}
	}
}
