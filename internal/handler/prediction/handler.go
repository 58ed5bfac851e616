package prediction

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orsched/or-dashboard/internal/handler"
	"github.com/orsched/or-dashboard/internal/model"
	"github.com/orsched/or-dashboard/internal/service/prediction"
)

type Handler struct {
	service *prediction.Service
}

func NewHandler(service *prediction.Service) *Handler {
	return &Handler{service: service}
}

// Predict fails fast when no model is fitted and persists the estimate as
// a new case.
func (h *Handler) Predict(c *gin.Context) {
	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.Predict(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

// PredictAuto trains on demand when no model exists before serving.
func (h *Handler) PredictAuto(c *gin.Context) {
	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.PredictAuto(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) PredictBaseline(c *gin.Context) {
	var req model.BaselineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.PredictBaseline(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) Train(c *gin.Context) {
	result, err := h.service.Train(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	predictions := r.Group("/predictions")
	{
		predictions.POST("", h.Predict)
		predictions.POST("/auto", h.PredictAuto)
		predictions.POST("/baseline", h.PredictBaseline)
	}
	r.POST("/training/run", h.Train)
}
