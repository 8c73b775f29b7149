package screenconfig

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, svc ScreenConfigServiceAPI, auth gin.HandlerFunc) {
	controller := &ScreenConfigController{ScreenConfigService: svc}

	screens := r.Group("/api/screens")
	screens.Use(auth)
	{
		screens.GET("", controller.ListScreens)
		screens.GET("/:key/config", controller.GetConfig)
		screens.PATCH("/:key/config", controller.UpdateConfig)
		screens.POST("/:key/config/save", controller.SaveConfig)
		screens.GET("/:key/config/export", controller.ExportConfig)
		screens.GET("/:key/config/archives", controller.ListArchives)
		screens.POST("/:key/config/import", controller.ImportConfig)
		screens.DELETE("/:key/session", controller.CloseSession)
	}

	reports := r.Group("/api/reports")
	reports.Use(auth)
	{
		reports.GET("/screens.xlsx", controller.DownloadReport)
	}

	r.GET("/api/terminal/config/:key", controller.GetTerminalConfig)
}
