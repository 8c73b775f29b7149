package auth

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, ac *AuthController, auth, admin gin.HandlerFunc) {
	group := r.Group("/api/auth")
	{
		group.POST("/login", ac.Login)
		group.POST("/logout", ac.Logout)
		group.GET("/me", auth, ac.Me)
	}

	operators := r.Group("/api/operators")
	operators.Use(auth, admin)
	{
		operators.GET("", ac.ListOperators)
		operators.POST("", ac.CreateOperator)
	}
}
