package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestDeserialize_TypedFields(t *testing.T) {
	rec := PhotoDB{
		ID:         primitive.NewObjectID(),
		OwnerID:    "owner-1",
		Filename:   "abc.jpg",
		Tags:       "a,b",
		GeotagLat:  "37.5",
		GeotagLng:  "127.03",
		TakenDate:  "2019:03:01 14:20:05",
		Width:      "4032",
		Height:     "3024",
		UploadDate: time.Date(2019, 3, 2, 10, 0, 0, 0, time.UTC),
		Size:       12345,
	}

	p := Deserialize(rec, zap.NewNop())

	assert.Equal(t, rec.ID.Hex(), p.ID)
	assert.Equal(t, "a,b", p.Tags)
	assert.Equal(t, 37.5, p.GeotagLat)
	assert.Equal(t, 127.03, p.GeotagLng)
	assert.Equal(t, 4032, p.Width)
	assert.Equal(t, 3024, p.Height)
	assert.Equal(t, time.Date(2019, 3, 1, 14, 20, 5, 0, time.UTC), p.TakenDate)
	assert.Equal(t, int64(12345), p.Size)
}

func TestDeserialize_MalformedFieldsFailClosed(t *testing.T) {
	rec := PhotoDB{
		ID:        primitive.NewObjectID(),
		OwnerID:   "owner-1",
		Filename:  "abc.jpg",
		Desc:      "keep me",
		GeotagLat: "not-a-number",
		TakenDate: "yesterday",
		Width:     "wide",
	}

	// The rest of the record survives a bad field.
	p := Deserialize(rec, zap.NewNop())

	assert.Equal(t, "keep me", p.Desc)
	assert.Zero(t, p.GeotagLat)
	assert.Zero(t, p.Width)
	assert.True(t, p.TakenDate.IsZero())
}

func TestDeserialize_EmptyOptionalFields(t *testing.T) {
	rec := PhotoDB{ID: primitive.NewObjectID(), OwnerID: "owner-1", Filename: "abc.jpg"}

	p := Deserialize(rec, zap.NewNop())

	assert.Zero(t, p.GeotagLat)
	assert.Zero(t, p.GeotagLng)
	assert.True(t, p.TakenDate.IsZero())
}
