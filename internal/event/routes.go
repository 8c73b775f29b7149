package event

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the event endpoints. admin guards the calls that
// change which event is active.
func RegisterRoutes(r *gin.Engine, svc EventServiceAPI, auth, admin gin.HandlerFunc) {
	eventController := &EventController{EventService: svc}

	eventGroup := r.Group("/api/events")
	eventGroup.Use(auth)
	{
		eventGroup.GET("", eventController.ListEvents)
		eventGroup.POST("", admin, eventController.CreateEvent)
		eventGroup.POST("/:id/activate", admin, eventController.ActivateEvent)
		eventGroup.DELETE("/active", admin, eventController.DeactivateEvents)
		eventGroup.GET("/:id/screens", eventController.ListEventScreens)
	}
}
