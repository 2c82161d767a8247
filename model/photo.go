package model

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TakenDateLayout is the EXIF-style timestamp format descriptive fields
// arrive in and are stored as.
const TakenDateLayout = "2006:01:02 15:04:05"

// PhotoDB is a stored photo record. Descriptive fields keep the raw string
// form they were submitted in; typing happens once, in Deserialize.
type PhotoDB struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID    string             `bson:"owner_id"`
	Filename   string             `bson:"filename"`
	Tags       string             `bson:"tags,omitempty"`
	Desc       string             `bson:"desc,omitempty"`
	GeotagLat  string             `bson:"geotag_lat,omitempty"`
	GeotagLng  string             `bson:"geotag_lng,omitempty"`
	TakenDate  string             `bson:"taken_date,omitempty"`
	Make       string             `bson:"make,omitempty"`
	Model      string             `bson:"model,omitempty"`
	Width      string             `bson:"width,omitempty"`
	Height     string             `bson:"height,omitempty"`
	City       string             `bson:"city,omitempty"`
	Nation     string             `bson:"nation,omitempty"`
	Address    string             `bson:"address,omitempty"`
	UploadDate time.Time          `bson:"upload_date"`
	Size       int64              `bson:"size"`
}

// Photo is the typed API view of a stored record.
type Photo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Tags       string    `json:"tags,omitempty"`
	Desc       string    `json:"desc,omitempty"`
	GeotagLat  float64   `json:"geotag_lat"`
	GeotagLng  float64   `json:"geotag_lng"`
	TakenDate  time.Time `json:"taken_date"`
	Make       string    `json:"make,omitempty"`
	Model      string    `json:"model,omitempty"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	City       string    `json:"city,omitempty"`
	Nation     string    `json:"nation,omitempty"`
	Address    string    `json:"address,omitempty"`
	UploadDate time.Time `json:"upload_date"`
	Size       int64     `json:"size"`
}

// Deserialize converts a stored record into its typed API view. A malformed
// stored field is logged and left at its zero value; it never fails the
// whole record.
func Deserialize(rec PhotoDB, log *zap.Logger) Photo {
	p := Photo{
		ID:         rec.ID.Hex(),
		Filename:   rec.Filename,
		Tags:       rec.Tags,
		Desc:       rec.Desc,
		Make:       rec.Make,
		Model:      rec.Model,
		City:       rec.City,
		Nation:     rec.Nation,
		Address:    rec.Address,
		UploadDate: rec.UploadDate,
		Size:       rec.Size,
	}

	p.GeotagLat = parseFloatField(rec.GeotagLat, "geotag_lat", &rec, log)
	p.GeotagLng = parseFloatField(rec.GeotagLng, "geotag_lng", &rec, log)
	p.Width = parseIntField(rec.Width, "width", &rec, log)
	p.Height = parseIntField(rec.Height, "height", &rec, log)

	if rec.TakenDate != "" {
		t, err := time.Parse(TakenDateLayout, rec.TakenDate)
		if err != nil {
			warnMalformed("taken_date", rec.TakenDate, &rec, log)
		} else {
			p.TakenDate = t
		}
	}

	return p
}

func parseFloatField(raw, field string, rec *PhotoDB, log *zap.Logger) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		warnMalformed(field, raw, rec, log)
		return 0
	}
	return v
}

func parseIntField(raw, field string, rec *PhotoDB, log *zap.Logger) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		warnMalformed(field, raw, rec, log)
		return 0
	}
	return v
}

func warnMalformed(field, value string, rec *PhotoDB, log *zap.Logger) {
	log.Warn("malformed stored field",
		zap.String("field", field),
		zap.String("value", value),
		zap.String("photo_id", rec.ID.Hex()),
		zap.String("owner_id", rec.OwnerID))
}
