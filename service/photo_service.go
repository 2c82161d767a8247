package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"cloudalbum/model"
	"cloudalbum/storage"
)

// UploadFields carries the caller-supplied descriptive fields of an upload.
// Values stay as submitted; typing happens at the deserialization boundary
// when records are read back.
type UploadFields struct {
	Tags      string
	Desc      string
	GeotagLat string
	GeotagLng string
	TakenDate string
	Make      string
	Model     string
	Width     string
	Height    string
	City      string
	Nation    string
	Address   string
}

// PhotoService sequences the filename sanitizer, the blob store and the
// metadata repository. It is the single entry point for the photo
// lifecycle and the place ownership is enforced: every store call it makes
// carries the caller's identity.
type PhotoService struct {
	Db      storage.PhotoDB
	Storage storage.PhotoStorage
	Log     *zap.Logger
}

// Upload validates the file, persists the original and its thumbnail, then
// writes the metadata record. A blob failure leaves no metadata behind; a
// metadata failure leaves the already written blob orphaned, which is
// logged for out-of-band cleanup rather than rolled back (blob deletion
// can itself fail, and masking the write error helps nobody).
func (s *PhotoService) Upload(ctx context.Context, ident model.CallerIdentity, originalFilename string, data []byte, fields UploadFields) error {
	filename, err := storage.NewStorageFilename(originalFilename)
	if err != nil {
		return err
	}

	fields = enrichFromEXIF(data, fields)

	size, err := s.Storage.SavePhoto(data, filename, storage.NormalizeEmail(ident.Email))
	if err != nil {
		s.Log.Error("blob write failed",
			zap.String("owner_id", ident.UserID),
			zap.String("filename", filename),
			zap.Error(err))
		return err
	}

	rec := model.PhotoDB{
		ID:         primitive.NewObjectID(),
		OwnerID:    ident.UserID,
		Filename:   filename,
		Tags:       fields.Tags,
		Desc:       fields.Desc,
		GeotagLat:  fields.GeotagLat,
		GeotagLng:  fields.GeotagLng,
		TakenDate:  fields.TakenDate,
		Make:       fields.Make,
		Model:      fields.Model,
		Width:      fields.Width,
		Height:     fields.Height,
		City:       fields.City,
		Nation:     fields.Nation,
		Address:    fields.Address,
		UploadDate: time.Now().UTC(),
		Size:       size,
	}

	if err := s.Db.SavePhoto(ctx, rec); err != nil {
		s.Log.Error("metadata write failed, blob orphaned",
			zap.String("owner_id", ident.UserID),
			zap.String("filename", filename),
			zap.String("step", "metadata"),
			zap.Error(err))
		return err
	}

	return nil
}

// List returns every photo of the caller, deserialized. A record with
// malformed stored fields comes back with those fields zeroed; it never
// aborts the list.
func (s *PhotoService) List(ctx context.Context, ident model.CallerIdentity) ([]model.Photo, error) {
	records, err := s.Db.ListPhotos(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}

	photos := make([]model.Photo, 0, len(records))
	for _, rec := range records {
		photos = append(photos, model.Deserialize(rec, s.Log))
	}
	return photos, nil
}

// Fetch returns the requested variant's bytes and a content type. The
// metadata lookup is owner-scoped, so a foreign or unknown id is
// ErrNotFound before any blob access.
func (s *PhotoService) Fetch(ctx context.Context, ident model.CallerIdentity, photoID, mode string) ([]byte, string, error) {
	rec, err := s.Db.GetPhoto(ctx, ident.UserID, photoID)
	if err != nil {
		return nil, "", err
	}

	variant := storage.VariantOriginal
	if mode == "thumbnail" {
		variant = storage.VariantThumbnail
	}

	data, err := s.Storage.ReadPhoto(rec.Filename, storage.NormalizeEmail(ident.Email), variant)
	if err != nil {
		return nil, "", err
	}

	// One content type for the whole supported format family.
	return data, "image/jpeg", nil
}

// Delete removes the metadata record first, then both blob variants. The
// two steps are not transactional: if the blob is already gone after the
// record was removed, that inconsistency is reported, not masked, and
// there is no compensation (the record cannot be un-deleted).
func (s *PhotoService) Delete(ctx context.Context, ident model.CallerIdentity, photoID string) error {
	filename, err := s.Db.DeletePhoto(ctx, ident.UserID, photoID)
	if err != nil {
		return err
	}

	existed, err := s.Storage.DeletePhoto(filename, storage.NormalizeEmail(ident.Email))
	if err != nil {
		s.Log.Error("blob delete failed after metadata delete",
			zap.String("owner_id", ident.UserID),
			zap.String("photo_id", photoID),
			zap.String("filename", filename),
			zap.String("step", "blob"),
			zap.Error(err))
		return err
	}
	if !existed {
		s.Log.Warn("blob missing for deleted record",
			zap.String("owner_id", ident.UserID),
			zap.String("photo_id", photoID),
			zap.String("filename", filename))
		return fmt.Errorf("%w: blob missing for photo %s", model.ErrInconsistent, photoID)
	}

	return nil
}
