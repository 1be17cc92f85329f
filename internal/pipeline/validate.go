package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"backsnap-backend/internal/models"
)

// ValidateImage checks size, format and resolution before any remote call
// is made; the external API bills on invalid input. Returns the sniffed
// content type.
func ValidateImage(data []byte, maxBytes int64, maxMegapixels float64) (string, error) {
	if int64(len(data)) > maxBytes {
		return "", models.NewError(models.KindValidation,
			fmt.Sprintf("file size must be less than %dMB", maxBytes/(1024*1024)))
	}
	if len(data) == 0 {
		return "", models.NewError(models.KindValidation, "empty file")
	}

	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return "", models.NewError(models.KindValidation, "please use a JPG or PNG image")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", models.WrapError(models.KindValidation, "unreadable image", err)
	}

	megapixels := float64(cfg.Width) * float64(cfg.Height) / 1e6
	if megapixels > maxMegapixels {
		return "", models.NewError(models.KindValidation,
			fmt.Sprintf("image must be less than %.0f megapixels", maxMegapixels))
	}

	return contentType, nil
}
