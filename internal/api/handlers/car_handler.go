package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"greendrake/carads/internal/api/middleware"
	"greendrake/carads/internal/apperrors"
	"greendrake/carads/internal/models"
	"greendrake/carads/internal/services"
)

// CarImageField is the multipart field carrying listing images.
const CarImageField = "carImage"

// CarHandler serves the owner-scoped /cars resource.
type CarHandler struct {
	carService    services.ICarService
	uploadService services.IUploadService
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(carService services.ICarService, uploadService services.IUploadService) *CarHandler {
	return &CarHandler{
		carService:    carService,
		uploadService: uploadService,
	}
}

// CreateCar handles POST /cars. Fields are validated before any image is
// uploaded so a rejected request leaves nothing on the image host.
func (h *CarHandler) CreateCar(c *gin.Context) {
	ownerID, ok := middleware.CallerID(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized("Authentication invalid"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		_ = c.Error(multipartError(err, "Please upload at least one image"))
		return
	}
	if len(form.File[CarImageField]) == 0 {
		_ = c.Error(apperrors.BadRequest("Please upload at least one image"))
		return
	}

	var input models.CarInput
	if err := c.ShouldBind(&input); err != nil {
		_ = c.Error(apperrors.New(apperrors.KindBadRequest, "Invalid car fields", err))
		return
	}
	if err := models.Validate(&input); err != nil {
		_ = c.Error(apperrors.BadRequest(err.Error()))
		return
	}

	urls, err := h.uploadService.UploadFiles(c.Request.Context(), form.File[CarImageField], services.CarImageFolder)
	if err != nil {
		_ = c.Error(err)
		return
	}

	car, err := h.carService.CreateCar(c.Request.Context(), ownerID, input, urls)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"car": car})
}

// GetAllCars handles GET /cars with search, status, sort and paging parameters.
func (h *CarHandler) GetAllCars(c *gin.Context) {
	ownerID, ok := middleware.CallerID(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized("Authentication invalid"))
		return
	}

	page, err := h.carService.ListCars(c.Request.Context(), ownerID, services.ParseCarQuery(c.Request.URL.Query()))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetCar handles GET /cars/:id
func (h *CarHandler) GetCar(c *gin.Context) {
	ownerID, ok := middleware.CallerID(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized("Authentication invalid"))
		return
	}

	car, err := h.carService.FindCar(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": car})
}

// UpdateCar handles PATCH /cars/:id. Only carModel, price, phone, status and
// carImage may be sent; any other key is rejected.
func (h *CarHandler) UpdateCar(c *gin.Context) {
	ownerID, ok := middleware.CallerID(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized("Authentication invalid"))
		return
	}

	var update models.CarUpdate
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		if errors.Is(err, io.EOF) {
			_ = c.Error(apperrors.BadRequest("Please provide at least one field to update"))
			return
		}
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			_ = c.Error(apperrors.New(apperrors.KindBadRequest, "Only carModel, price, phone, status and carImage can be updated", err))
			return
		}
		_ = c.Error(apperrors.New(apperrors.KindBadRequest, "Invalid request body", err))
		return
	}

	car, err := h.carService.UpdateCar(c.Request.Context(), c.Param("id"), ownerID, update)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": car})
}

// DeleteCar handles DELETE /cars/:id
func (h *CarHandler) DeleteCar(c *gin.Context) {
	ownerID, ok := middleware.CallerID(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized("Authentication invalid"))
		return
	}

	if err := h.carService.DeleteCar(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusOK)
}

// UploadImage handles POST /cars/uploads: a single image pushed to the image
// host without touching any listing.
func (h *CarHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile(CarImageField)
	if err != nil {
		_ = c.Error(multipartError(err, "Please upload an image"))
		return
	}

	url, err := h.uploadService.UploadFile(c.Request.Context(), file, services.StandaloneImageFolder)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"carImage": gin.H{"src": url}})
}

// multipartError reports a body cut off by the size limit as 413 and any
// other parse failure as a Bad-Request carrying msg.
func multipartError(err error, msg string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.New(apperrors.KindTooLarge, "Request body too large", err)
	}
	return apperrors.New(apperrors.KindBadRequest, msg, err)
}
