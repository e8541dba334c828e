package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"greendrake/carads/internal/apperrors"
	"greendrake/carads/internal/cache"
	"greendrake/carads/internal/db"
	"greendrake/carads/internal/events"
	"greendrake/carads/internal/models"
	"greendrake/carads/internal/platform/metrics"
)

// ErrCarNotFound is wrapped by the Not-Found errors returned for a missing
// or foreign listing.
var ErrCarNotFound = errors.New("car not found")

var tracer = otel.Tracer("greendrake/carads/internal/services")

// ICarService defines owner-scoped operations on car listings.
type ICarService interface {
	ListCars(ctx context.Context, ownerID primitive.ObjectID, q models.CarQuery) (*models.CarPage, error)
	FindCar(ctx context.Context, carID string, ownerID primitive.ObjectID) (*models.Car, error)
	CreateCar(ctx context.Context, ownerID primitive.ObjectID, input models.CarInput, imageURLs []string) (*models.Car, error)
	UpdateCar(ctx context.Context, carID string, ownerID primitive.ObjectID, update models.CarUpdate) (*models.Car, error)
	DeleteCar(ctx context.Context, carID string, ownerID primitive.ObjectID) error
}

// carService implements ICarService.
type carService struct {
	db        *mongo.Database
	cache     cache.ICarCache
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewCarService creates a new CarService. carCache may be nil to disable caching.
func NewCarService(database *mongo.Database, carCache cache.ICarCache, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) ICarService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &carService{db: database, cache: carCache, publisher: publisher, metrics: m, log: log}
}

func (s *carService) collection() *mongo.Collection {
	return s.db.Collection(db.CarsCollection)
}

func carNotFound(carID string) error {
	return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("No car with id %s", carID), ErrCarNotFound)
}

// ListCars returns one page of the caller's listings plus the total match count.
func (s *carService) ListCars(ctx context.Context, ownerID primitive.ObjectID, q models.CarQuery) (*models.CarPage, error) {
	ctx, span := tracer.Start(ctx, "CarService.ListCars")
	defer span.End()

	filter, opts := BuildCarQuery(ownerID, q)
	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer cursor.Close(ctx)

	cars := []models.Car{}
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("failed to decode cars: %w", err)
	}
	if cars == nil {
		cars = []models.Car{}
	}

	total, err := s.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count cars: %w", err)
	}
	span.SetAttributes(attribute.Int64("cars.total", total))

	return &models.CarPage{
		Cars:       cars,
		TotalCars:  total,
		NumOfPages: PageCount(total, q.Limit),
	}, nil
}

// FindCar returns the caller's listing. A malformed, missing or foreign id
// all yield the same Not-Found error.
func (s *carService) FindCar(ctx context.Context, carID string, ownerID primitive.ObjectID) (*models.Car, error) {
	ctx, span := tracer.Start(ctx, "CarService.FindCar")
	defer span.End()

	id, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		return nil, carNotFound(carID)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, ownerID, id)
		if err != nil {
			s.log.Warn("car cache read failed", zap.String("car_id", carID), zap.Error(err))
		} else if cached != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	var car models.Car
	err = s.collection().FindOne(ctx, bson.M{"_id": id, "createdBy": ownerID}).Decode(&car)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, carNotFound(carID)
		}
		return nil, fmt.Errorf("failed to find car %s: %w", carID, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, &car); err != nil {
			s.log.Warn("car cache write failed", zap.String("car_id", carID), zap.Error(err))
		}
	}
	return &car, nil
}

// CreateCar persists a new listing owned by ownerID with the given image URLs.
func (s *carService) CreateCar(ctx context.Context, ownerID primitive.ObjectID, input models.CarInput, imageURLs []string) (*models.Car, error) {
	ctx, span := tracer.Start(ctx, "CarService.CreateCar")
	defer span.End()

	if err := models.Validate(&input); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	if input.Status == "" {
		input.Status = models.CarStatusAvailable
	}
	if imageURLs == nil {
		imageURLs = []string{}
	}

	now := time.Now().UTC()
	car := &models.Car{
		CarModel:  input.CarModel,
		Price:     input.Price,
		Phone:     input.Phone,
		Status:    input.Status,
		CarImage:  imageURLs,
		CreatedBy: ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	car.GenIDIfEmpty()

	if _, err := s.collection().InsertOne(ctx, car); err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	s.metrics.CarCreated()
	s.publish(ctx, events.SubjectCarCreated, car.ID, ownerID)
	return car, nil
}

// UpdateCar merges the provided fields into the caller's listing and returns
// the updated document.
func (s *carService) UpdateCar(ctx context.Context, carID string, ownerID primitive.ObjectID, update models.CarUpdate) (*models.Car, error) {
	ctx, span := tracer.Start(ctx, "CarService.UpdateCar")
	defer span.End()

	if (update.CarModel != nil && *update.CarModel == "") || (update.Phone != nil && *update.Phone == "") {
		return nil, apperrors.BadRequest("carModel & phone fields cannot be empty")
	}
	if update.IsEmpty() {
		return nil, apperrors.BadRequest("Please provide at least one field to update")
	}
	if err := models.Validate(&update); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	id, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		return nil, carNotFound(carID)
	}

	var car models.Car
	err = s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "createdBy": ownerID},
		bson.M{"$set": update.SetDocument(time.Now().UTC())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&car)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, carNotFound(carID)
		}
		return nil, fmt.Errorf("failed to update car %s: %w", carID, err)
	}

	s.invalidate(ctx, ownerID, id)
	s.metrics.CarUpdated()
	s.publish(ctx, events.SubjectCarUpdated, id, ownerID)
	return &car, nil
}

// DeleteCar hard-deletes the caller's listing. Remote images are left in place.
func (s *carService) DeleteCar(ctx context.Context, carID string, ownerID primitive.ObjectID) error {
	ctx, span := tracer.Start(ctx, "CarService.DeleteCar")
	defer span.End()

	id, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		return carNotFound(carID)
	}

	err = s.collection().FindOneAndDelete(ctx, bson.M{"_id": id, "createdBy": ownerID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return carNotFound(carID)
		}
		return fmt.Errorf("failed to delete car %s: %w", carID, err)
	}

	s.invalidate(ctx, ownerID, id)
	s.metrics.CarDeleted()
	s.publish(ctx, events.SubjectCarDeleted, id, ownerID)
	return nil
}

func (s *carService) invalidate(ctx context.Context, ownerID, carID primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID, carID); err != nil {
		s.log.Warn("car cache invalidation failed", zap.String("car_id", carID.Hex()), zap.Error(err))
	}
}

// publish is best effort: a failed publish is logged and never fails the request.
func (s *carService) publish(ctx context.Context, subject string, carID, ownerID primitive.ObjectID) {
	evt := events.CarEvent{CarID: carID.Hex(), OwnerID: ownerID.Hex(), OccurredAt: time.Now().UTC()}
	if err := s.publisher.Publish(ctx, subject, evt); err != nil {
		s.log.Warn("failed to publish car event", zap.String("subject", subject), zap.String("car_id", evt.CarID), zap.Error(err))
	}
}
