package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"backsnap-backend/internal/middleware"
	"backsnap-backend/internal/models"
	"backsnap-backend/internal/pipeline"
	"backsnap-backend/internal/records"
	"backsnap-backend/internal/supabase"
)

type ImagesHandler struct {
	pipeline       *pipeline.Pipeline
	records        *records.Store
	realtimeClient *supabase.RealtimeClient
	maxUploadBytes int64
}

func NewImagesHandler(p *pipeline.Pipeline, recordStore *records.Store, realtimeClient *supabase.RealtimeClient, maxUploadBytes int64) *ImagesHandler {
	return &ImagesHandler{
		pipeline:       p,
		records:        recordStore,
		realtimeClient: realtimeClient,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload godoc
// @Summary     Remove the background of an image
// @Description Uploads an image, runs it through background removal, and stores
// @Description both versions. Consumes one request from the caller's daily quota.
// @Tags        images
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       image formData file true "JPEG or PNG image, at most 10MB and 25 megapixels"
// @Success     201 {object} models.ProcessResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /images [post]
func (h *ImagesHandler) Upload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, models.NewError(models.KindUnauthenticated, "user id not found"))
		return
	}

	file, err := h.formFile(c)
	if err != nil {
		respondError(c, err)
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, models.WrapError(models.KindValidation, "failed to open uploaded file", err))
		return
	}
	defer src.Close()

	// The size limit is re-checked by validation; this reader just caps
	// how much of an oversized body gets buffered.
	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		respondError(c, models.WrapError(models.KindValidation, "failed to read uploaded file", err))
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), userID, data)
	if err != nil {
		if result != nil && result.Record != nil {
			h.realtimeClient.PublishImageEvent(result.Record.ID, "processing_failed",
				supabase.ProcessingFailedPayload(result.Record.ID, err.Error()))
		}
		respondError(c, err)
		return
	}

	h.realtimeClient.PublishImageEvent(result.Record.ID, "processing_completed",
		supabase.ProcessingCompletedPayload(result.Record.ID, result.Record.ProcessedURL.String))

	c.JSON(http.StatusCreated, models.ProcessResponse{
		Image: models.ToImageResponse(result.Record),
		Quota: models.QuotaResponse{
			Limit:     h.pipeline.QuotaLimit(),
			Remaining: result.Remaining,
			ResetAt:   result.ResetAt,
		},
	})
}

// ListImages godoc
// @Summary     List the caller's images
// @Description Returns all image records for the authenticated user, newest first
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ImageListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /images [get]
func (h *ImagesHandler) ListImages(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, models.NewError(models.KindUnauthenticated, "user id not found"))
		return
	}

	imageRecords, err := h.records.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.ImageListResponse{Images: make([]models.ImageResponse, 0, len(imageRecords))}
	for i := range imageRecords {
		resp.Images = append(resp.Images, models.ToImageResponse(&imageRecords[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// GetImage godoc
// @Summary     Get one image record
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Param       image_id path string true "Image ID (UUID)"
// @Success     200 {object} models.ImageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /images/{image_id} [get]
func (h *ImagesHandler) GetImage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, models.NewError(models.KindUnauthenticated, "user id not found"))
		return
	}

	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		respondError(c, models.WrapError(models.KindValidation, "invalid image id", err))
		return
	}

	record, err := h.records.Get(c.Request.Context(), userID, imageID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ToImageResponse(record))
}

// DeleteImage godoc
// @Summary     Delete an image record and its blobs
// @Description Removes the original and processed blobs, then the record.
// @Description Deleting an already-absent record succeeds, so the call is safe
// @Description to retry after a partial failure.
// @Tags        images
// @Security    Bearer
// @Param       image_id path string true "Image ID (UUID)"
// @Success     204
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /images/{image_id} [delete]
func (h *ImagesHandler) DeleteImage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, models.NewError(models.KindUnauthenticated, "user id not found"))
		return
	}

	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		respondError(c, models.WrapError(models.KindValidation, "invalid image id", err))
		return
	}

	if err := h.records.Delete(c.Request.Context(), userID, imageID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// formFile finds the uploaded image under the common field names.
func (h *ImagesHandler) formFile(c *gin.Context) (*multipart.FileHeader, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return nil, models.WrapError(models.KindValidation, "failed to parse multipart form", err)
	}

	form := c.Request.MultipartForm
	if form == nil {
		return nil, models.NewError(models.KindValidation, "multipart form is required")
	}

	for _, fieldName := range []string{"image", "image_file", "file"} {
		if files := form.File[fieldName]; len(files) > 0 {
			return files[0], nil
		}
	}

	return nil, models.NewError(models.KindValidation, "no image uploaded, use form field \"image\"")
}
