package handlers

import (
	"net/http"

	"merchant-service/internal/domain/entities"
	"merchant-service/internal/services"
	"merchant-service/shared/logger"

	"github.com/gin-gonic/gin"
)

// MerchantsHandler serves /api/v1/merchants.
type MerchantsHandler struct {
	merchantService *services.MerchantService
	logger          logger.Logger
}

// NewMerchantsHandler binds the handlers to merchantService.
func NewMerchantsHandler(merchantService *services.MerchantService, log logger.Logger) *MerchantsHandler {
	return &MerchantsHandler{
		merchantService: merchantService,
		logger:          log,
	}
}

type listParams struct {
	Search string `form:"search"`
	Status string `form:"status"`
	Page   int    `form:"page"`
	Size   int    `form:"size"`
	Sort   string `form:"sort"`
}

// FindAll handles GET /merchants.
func (h *MerchantsHandler) FindAll(c *gin.Context) {
	var params listParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondError(c, h.logger, entities.NewValidationError("query", "page and size must be integers"))
		return
	}

	page, err := h.merchantService.List(c.Request.Context(), services.ListQuery{
		Search: params.Search,
		Status: params.Status,
		Page:   params.Page,
		Size:   params.Size,
		Sort:   params.Sort,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Create handles POST /merchants.
func (h *MerchantsHandler) Create(c *gin.Context) {
	var req entities.MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c)
		return
	}

	merchant, err := h.merchantService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, merchant)
}

// FindOne handles GET /merchants/:id.
func (h *MerchantsHandler) FindOne(c *gin.Context) {
	merchant, err := h.merchantService.GetByMerchantID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, merchant)
}

// Update handles PUT /merchants/:id.
func (h *MerchantsHandler) Update(c *gin.Context) {
	var req entities.MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c)
		return
	}

	merchant, err := h.merchantService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, merchant)
}

// Remove handles DELETE /merchants/:id. The merchant is deactivated, not deleted.
func (h *MerchantsHandler) Remove(c *gin.Context) {
	if _, err := h.merchantService.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Merchant deactivated successfully"})
}

// ChangeStatus handles PATCH /merchants/:id/status.
func (h *MerchantsHandler) ChangeStatus(c *gin.Context) {
	var req entities.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c)
		return
	}

	merchant, err := h.merchantService.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, merchant)
}
