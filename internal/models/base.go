package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base is embedded inline by documents keyed on a Mongo ObjectID.
type Base struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
}

// GenIDIfEmpty assigns a fresh ObjectID unless one is already set.
func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
}
