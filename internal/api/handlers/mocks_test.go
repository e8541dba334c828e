package handlers_test

import (
	"context"
	"mime/multipart"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greendrake/carads/internal/models"
)

// --- Mocks ---

// MockCarService
type MockCarService struct {
	mock.Mock
}

func (m *MockCarService) ListCars(ctx context.Context, ownerID primitive.ObjectID, q models.CarQuery) (*models.CarPage, error) {
	args := m.Called(ctx, ownerID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CarPage), args.Error(1)
}

func (m *MockCarService) FindCar(ctx context.Context, carID string, ownerID primitive.ObjectID) (*models.Car, error) {
	args := m.Called(ctx, carID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarService) CreateCar(ctx context.Context, ownerID primitive.ObjectID, input models.CarInput, imageURLs []string) (*models.Car, error) {
	args := m.Called(ctx, ownerID, input, imageURLs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarService) UpdateCar(ctx context.Context, carID string, ownerID primitive.ObjectID, update models.CarUpdate) (*models.Car, error) {
	args := m.Called(ctx, carID, ownerID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarService) DeleteCar(ctx context.Context, carID string, ownerID primitive.ObjectID) error {
	args := m.Called(ctx, carID, ownerID)
	return args.Error(0)
}

// MockUploadService
type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) UploadFiles(ctx context.Context, files []*multipart.FileHeader, folder string) ([]string, error) {
	args := m.Called(ctx, files, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUploadService) UploadFile(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	args := m.Called(ctx, file, folder)
	return args.String(0), args.Error(1)
}
