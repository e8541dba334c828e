package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"greendrake/carads/internal/models"
)

func TestBase_GenIDIfEmpty(t *testing.T) {
	var fresh models.Base
	fresh.GenIDIfEmpty()
	assert.False(t, fresh.ID.IsZero())

	id := primitive.NewObjectID()
	kept := models.Base{ID: id}
	kept.GenIDIfEmpty()
	assert.Equal(t, id, kept.ID)
}
