package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backsnap-backend/internal/middleware"
	"backsnap-backend/internal/models"
	"backsnap-backend/internal/quota"
)

type QuotaHandler struct {
	store quota.Store
}

func NewQuotaHandler(store quota.Store) *QuotaHandler {
	return &QuotaHandler{store: store}
}

// GetQuota godoc
// @Summary     Current daily quota
// @Description Returns the remaining requests and reset time for the caller's window
// @Tags        quota
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.QuotaResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /quota [get]
func (h *QuotaHandler) GetQuota(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, models.NewError(models.KindUnauthenticated, "user id not found"))
		return
	}

	res, err := h.store.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.QuotaResponse{
		Limit:     h.store.Limit(),
		Remaining: res.Remaining,
		ResetAt:   res.ResetAt,
	})
}
