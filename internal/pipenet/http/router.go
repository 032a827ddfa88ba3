package http

import "github.com/gin-gonic/gin"

// Register registers the sizing routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/networks/size", h.SizeNetwork)
	rg.GET("/runs", h.ListRuns)
	rg.GET("/runs/:id", h.GetRun)
	rg.GET("/runs/:id/report", h.GetReport)
	rg.GET("/metrics", h.Metrics)
}
