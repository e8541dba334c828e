package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greendrake/carads/internal/auth"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	userID := primitive.NewObjectID()
	token, err := auth.GenerateJWT(userID, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.UserID)
	assert.Equal(t, userID.Hex(), claims.Subject)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := auth.GenerateJWT(primitive.NewObjectID(), "secret", time.Hour)
	require.NoError(t, err)

	_, err = auth.ValidateJWT(token, "other")
	assert.Error(t, err)
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := auth.GenerateJWT(primitive.NewObjectID(), "secret", -time.Minute)
	require.NoError(t, err)

	_, err = auth.ValidateJWT(token, "secret")
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := auth.ValidateJWT("not.a.token", "secret")
	assert.Error(t, err)
}
