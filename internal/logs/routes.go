package logs

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, svc AuditServiceAPI, auth gin.HandlerFunc) {
	ac := &AuditController{AuditService: svc}

	group := r.Group("/api/logs")
	group.Use(auth)
	{
		group.POST("", ac.ListAudit)
	}
}
