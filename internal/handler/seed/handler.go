package seed

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orsched/or-dashboard/internal/handler"
	"github.com/orsched/or-dashboard/internal/model"
	"github.com/orsched/or-dashboard/internal/service/seeder"
)

type Handler struct {
	service *seeder.Service
}

func NewHandler(service *seeder.Service) *Handler {
	return &Handler{service: service}
}

type importRequest struct {
	Path string `json:"path" binding:"required"`
}

func (h *Handler) ImportWorkbook(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.ImportWorkbook(c.Request.Context(), req.Path)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

type syntheticRequest struct {
	Year int    `json:"year" binding:"required,min=2000,max=2100"`
	Seed *int64 `json:"seed"`
}

func (h *Handler) GenerateSynthetic(c *gin.Context) {
	var req syntheticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	inserted, err := h.service.GenerateYear(c.Request.Context(), req.Year, seed)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"inserted": inserted}))
}

func (h *Handler) BackfillDoctors(c *gin.Context) {
	updated, err := h.service.BackfillDoctors(c.Request.Context(), time.Now().UnixNano())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": updated}))
}

func (h *Handler) ListDoctors(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.DoctorsBySpecialty))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/seed")
	{
		group.POST("/import", h.ImportWorkbook)
		group.POST("/synthetic", h.GenerateSynthetic)
	}
	r.POST("/doctors/backfill", h.BackfillDoctors)
	r.GET("/doctors", h.ListDoctors)
}
