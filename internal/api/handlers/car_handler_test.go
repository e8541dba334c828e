package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greendrake/carads/internal/api/handlers"
	"greendrake/carads/internal/api/middleware"
	"greendrake/carads/internal/apperrors"
	"greendrake/carads/internal/models"
	"greendrake/carads/internal/services"
)

// setupCarRouter mounts the handler behind a stub auth step that injects ownerID.
func setupCarRouter(carSvc *MockCarService, uploadSvc *MockUploadService, ownerID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewCarHandler(carSvc, uploadSvc)

	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop()))
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, ownerID)
		c.Next()
	})
	cars := r.Group("/api/v1/cars")
	cars.POST("", handler.CreateCar)
	cars.GET("", handler.GetAllCars)
	cars.POST("/uploads", handler.UploadImage)
	cars.GET("/:id", handler.GetCar)
	cars.PATCH("/:id", handler.UpdateCar)
	cars.DELETE("/:id", handler.DeleteCar)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for field, names := range files {
		for _, name := range names {
			part, err := writer.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("fake image bytes"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func validFields() map[string]string {
	return map[string]string{"carModel": "Toyota Corolla", "price": "5000", "phone": "08012345678"}
}

func TestCarHandler_CreateCar_Success(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	ownerID := primitive.NewObjectID()
	r := setupCarRouter(carSvc, uploadSvc, ownerID)

	urls := []string{"https://img.example.com/cars/a.jpg", "https://img.example.com/cars/b.jpg"}
	uploadSvc.On("UploadFiles", mock.Anything, mock.MatchedBy(func(files []*multipart.FileHeader) bool {
		return len(files) == 2
	}), services.CarImageFolder).Return(urls, nil)

	expectedInput := models.CarInput{CarModel: "Toyota Corolla", Price: 5000, Phone: "08012345678"}
	created := &models.Car{
		Base:      models.Base{ID: primitive.NewObjectID()},
		CarModel:  "Toyota Corolla",
		Price:     5000,
		Phone:     "08012345678",
		Status:    models.CarStatusAvailable,
		CarImage:  urls,
		CreatedBy: ownerID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	carSvc.On("CreateCar", mock.Anything, ownerID, expectedInput, urls).Return(created, nil)

	body, contentType := multipartBody(t, validFields(), map[string][]string{handlers.CarImageField: {"a.jpg", "b.jpg"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cars", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	car, ok := decodeBody(t, w)["car"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Toyota Corolla", car["carModel"])
	assert.Equal(t, ownerID.Hex(), car["createdBy"])
	assert.Len(t, car["carImage"], 2)
	carSvc.AssertExpectations(t)
	uploadSvc.AssertExpectations(t)
}

func TestCarHandler_CreateCar_NoImages(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	r := setupCarRouter(carSvc, uploadSvc, primitive.NewObjectID())

	body, contentType := multipartBody(t, validFields(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cars", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please upload at least one image", decodeBody(t, w)["msg"])
	uploadSvc.AssertNotCalled(t, "UploadFiles", mock.Anything, mock.Anything, mock.Anything)
	carSvc.AssertNotCalled(t, "CreateCar", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCarHandler_CreateCar_InvalidFieldsSkipsUpload(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	r := setupCarRouter(carSvc, uploadSvc, primitive.NewObjectID())

	fields := validFields()
	fields["phone"] = "12345"
	body, contentType := multipartBody(t, fields, map[string][]string{handlers.CarImageField: {"a.jpg"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cars", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["msg"], "phone")
	uploadSvc.AssertNotCalled(t, "UploadFiles", mock.Anything, mock.Anything, mock.Anything)
}

func TestCarHandler_CreateCar_UploadFailure(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	r := setupCarRouter(carSvc, uploadSvc, primitive.NewObjectID())

	uploadSvc.On("UploadFiles", mock.Anything, mock.Anything, services.CarImageFolder).
		Return(nil, errors.New("failed to upload a.jpg: host unavailable"))

	body, contentType := multipartBody(t, validFields(), map[string][]string{handlers.CarImageField: {"a.jpg"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cars", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeBody(t, w)["msg"], "host unavailable")
	carSvc.AssertNotCalled(t, "CreateCar", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCarHandler_GetAllCars(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	ownerID := primitive.NewObjectID()
	r := setupCarRouter(carSvc, uploadSvc, ownerID)

	expectedQuery := models.CarQuery{Search: "toy", Status: "sold", Sort: services.SortLatest, Page: 2, Limit: 3}
	page := &models.CarPage{
		Cars:       []models.Car{{Base: models.Base{ID: primitive.NewObjectID()}, CarModel: "Toyota Camry", CreatedBy: ownerID}},
		TotalCars:  4,
		NumOfPages: 2,
	}
	carSvc.On("ListCars", mock.Anything, ownerID, expectedQuery).Return(page, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cars?search=toy&status=sold&sort=latest&page=2&limit=3", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 4, body["totalCars"])
	assert.EqualValues(t, 2, body["numOfPages"])
	assert.Len(t, body["cars"], 1)
	carSvc.AssertExpectations(t)
}

func TestCarHandler_GetAllCars_Defaults(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	ownerID := primitive.NewObjectID()
	r := setupCarRouter(carSvc, uploadSvc, ownerID)

	expectedQuery := models.CarQuery{Page: services.DefaultPage, Limit: services.DefaultLimit}
	carSvc.On("ListCars", mock.Anything, ownerID, expectedQuery).
		Return(&models.CarPage{Cars: []models.Car{}}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cars", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cars":[],"totalCars":0,"numOfPages":0}`, w.Body.String())
	carSvc.AssertExpectations(t)
}

func TestCarHandler_GetCar(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	ownerID := primitive.NewObjectID()
	r := setupCarRouter(carSvc, uploadSvc, ownerID)

	car := &models.Car{Base: models.Base{ID: primitive.NewObjectID()}, CarModel: "Honda Civic", CreatedBy: ownerID}
	carSvc.On("FindCar", mock.Anything, car.ID.Hex(), ownerID).Return(car, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cars/"+car.ID.Hex(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	got := decodeBody(t, w)["car"].(map[string]interface{})
	assert.Equal(t, car.ID.Hex(), got["_id"])
	carSvc.AssertExpectations(t)
}

func TestCarHandler_GetCar_NotFound(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	ownerID := primitive.NewObjectID()
	r := setupCarRouter(carSvc, uploadSvc, ownerID)

	id := primitive.NewObjectID().Hex()
	carSvc.On("FindCar", mock.Anything, id, ownerID).
		Return(nil, apperrors.New(apperrors.KindNotFound, "No car with id "+id, services.ErrCarNotFound))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cars/"+id, nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No car with id "+id, decodeBody(t, w)["msg"])
}

func TestCarHandler_UpdateCar(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	ownerID := primitive.NewObjectID()
	r := setupCarRouter(carSvc, uploadSvc, ownerID)

	id := primitive.NewObjectID()
	price := 7500.0
	updated := &models.Car{Base: models.Base{ID: id}, CarModel: "Honda Civic", Price: price, CreatedBy: ownerID}
	carSvc.On("UpdateCar", mock.Anything, id.Hex(), ownerID, mock.MatchedBy(func(u models.CarUpdate) bool {
		return u.Price != nil && *u.Price == price && u.CarModel == nil && u.Phone == nil
	})).Return(updated, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cars/"+id.Hex(), strings.NewReader(`{"price":7500}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	got := decodeBody(t, w)["car"].(map[string]interface{})
	assert.EqualValues(t, price, got["price"])
	carSvc.AssertExpectations(t)
}

func TestCarHandler_UpdateCar_RejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"protected field", `{"createdBy":"abc"}`, "Only carModel, price, phone, status and carImage can be updated"},
		{"unknown field", `{"colour":"red"}`, "Only carModel, price, phone, status and carImage can be updated"},
		{"empty body", ``, "Please provide at least one field to update"},
		{"malformed json", `{"price":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
			r := setupCarRouter(carSvc, uploadSvc, primitive.NewObjectID())

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/cars/"+primitive.NewObjectID().Hex(), strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.msg, decodeBody(t, w)["msg"])
			carSvc.AssertNotCalled(t, "UpdateCar", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCarHandler_DeleteCar(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	ownerID := primitive.NewObjectID()
	r := setupCarRouter(carSvc, uploadSvc, ownerID)

	id := primitive.NewObjectID().Hex()
	carSvc.On("DeleteCar", mock.Anything, id, ownerID).Return(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/cars/"+id, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	carSvc.AssertExpectations(t)
}

func TestCarHandler_DeleteCar_NotFound(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	ownerID := primitive.NewObjectID()
	r := setupCarRouter(carSvc, uploadSvc, ownerID)

	carSvc.On("DeleteCar", mock.Anything, "nope", ownerID).
		Return(apperrors.New(apperrors.KindNotFound, "No car with id nope", services.ErrCarNotFound))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/cars/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCarHandler_UploadImage(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	r := setupCarRouter(carSvc, uploadSvc, primitive.NewObjectID())

	url := "https://img.example.com/file-upload/x.png"
	uploadSvc.On("UploadFile", mock.Anything, mock.MatchedBy(func(fh *multipart.FileHeader) bool {
		return fh.Filename == "x.png"
	}), services.StandaloneImageFolder).Return(url, nil)

	body, contentType := multipartBody(t, nil, map[string][]string{handlers.CarImageField: {"x.png"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cars/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"carImage":{"src":"`+url+`"}}`, w.Body.String())
	uploadSvc.AssertExpectations(t)
}

func TestCarHandler_UploadImage_MissingFile(t *testing.T) {
	carSvc, uploadSvc := new(MockCarService), new(MockUploadService)
	r := setupCarRouter(carSvc, uploadSvc, primitive.NewObjectID())

	body, contentType := multipartBody(t, map[string]string{"note": "no file"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cars/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please upload an image", decodeBody(t, w)["msg"])
	uploadSvc.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestCarHandler_UploadImage_BodyCutOffByLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uploadSvc := new(MockUploadService)
	handler := handlers.NewCarHandler(new(MockCarService), uploadSvc)

	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop()))
	r.Use(middleware.BodyLimit(1024))
	r.POST("/api/v1/cars/uploads", handler.UploadImage)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(handlers.CarImageField, "big.jpg")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xff}, 8<<10))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cars/uploads", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	// Chunked upload: the length is unknown until the body is read.
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request body too large", decodeBody(t, w)["msg"])
	uploadSvc.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything)
}
