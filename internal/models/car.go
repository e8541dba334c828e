package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CarStatus is the sale status of a listing.
type CarStatus string

const (
	CarStatusAvailable CarStatus = "available"
	CarStatusPending   CarStatus = "pending"
	CarStatusSold      CarStatus = "sold"
)

// Car is a used-car classified listing owned by a single user.
type Car struct {
	Base      `bson:",inline"`
	CarModel  string             `bson:"carModel" json:"carModel"`
	Price     float64            `bson:"price" json:"price"`
	Phone     string             `bson:"phone" json:"phone"`
	Status    CarStatus          `bson:"status" json:"status"`
	CarImage  []string           `bson:"carImage" json:"carImage"` // Image host URLs, replaced wholesale
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CarInput holds the form fields of a create request.
type CarInput struct {
	CarModel string    `form:"carModel" json:"carModel" validate:"required,min=3"`
	Price    float64   `form:"price" json:"price" validate:"required,gt=0"`
	Phone    string    `form:"phone" json:"phone" validate:"required,phone"`
	Status   CarStatus `form:"status" json:"status" validate:"omitempty,oneof=available pending sold"`
}

// CarUpdate is a PATCH body. Nil fields are left untouched.
type CarUpdate struct {
	CarModel *string    `json:"carModel" validate:"omitnil,min=3"`
	Price    *float64   `json:"price" validate:"omitnil,gt=0"`
	Phone    *string    `json:"phone" validate:"omitnil,phone"`
	Status   *CarStatus `json:"status" validate:"omitnil,oneof=available pending sold"`
	CarImage *[]string  `json:"carImage" validate:"omitnil,dive,url"`
}

// IsEmpty reports whether the update sets no field at all.
func (u CarUpdate) IsEmpty() bool {
	return u.CarModel == nil && u.Price == nil && u.Phone == nil && u.Status == nil && u.CarImage == nil
}

// SetDocument returns the $set document for the fields present in the update.
func (u CarUpdate) SetDocument(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.CarModel != nil {
		set["carModel"] = *u.CarModel
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Phone != nil {
		set["phone"] = *u.Phone
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.CarImage != nil {
		images := *u.CarImage
		if images == nil {
			images = []string{}
		}
		set["carImage"] = images
	}
	return set
}

// CarQuery holds normalised list parameters.
type CarQuery struct {
	Search string
	Status string
	Sort   string
	Page   int
	Limit  int
}

// CarPage is one page of a listing query.
type CarPage struct {
	Cars       []Car `json:"cars"`
	TotalCars  int64 `json:"totalCars"`
	NumOfPages int64 `json:"numOfPages"`
}
