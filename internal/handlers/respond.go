package handlers

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"backsnap-backend/internal/models"
)

// respondError maps a tagged error to its HTTP status. This is the single
// place where error kinds become status codes.
func respondError(c *gin.Context, err error) {
	kind := models.KindOf(err)

	message := ""
	var tagged *models.Error
	if errors.As(err, &tagged) {
		message = tagged.Message
	}

	// Persistence failures surface generically; the detail goes to the log.
	if kind == models.KindStorage || kind == models.KindUpstream {
		log.Printf("request failed: %v", err)
	}

	label := message
	if label == "" {
		label = string(kind)
	}
	c.JSON(kind.HTTPStatus(), models.ErrorResponse{
		Error: label,
		Kind:  string(kind),
	})
}
