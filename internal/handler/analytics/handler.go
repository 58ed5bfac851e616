package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orsched/or-dashboard/internal/handler"
	"github.com/orsched/or-dashboard/internal/model"
	"github.com/orsched/or-dashboard/internal/service/analytics"
)

type Handler struct {
	service *analytics.Service
}

func NewHandler(service *analytics.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	period := model.Period(c.DefaultQuery("period", string(model.PeriodAll)))

	report, err := h.service.Analytics(c.Request.Context(), period)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}

func (h *Handler) GetStatus(c *gin.Context) {
	period := model.Period(c.DefaultQuery("period", string(model.PeriodAll)))

	report, err := h.service.Status(c.Request.Context(), period)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/analytics")
	{
		group.GET("", h.GetAnalytics)
		group.GET("/status", h.GetStatus)
	}
}
