package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cloudalbum/model"
)

// PhotoDB is the metadata repository. Every lookup and mutation is scoped
// to an owner id; there is no unscoped access path.
type PhotoDB interface {
	SavePhoto(ctx context.Context, photo model.PhotoDB) error
	GetPhoto(ctx context.Context, ownerID, photoID string) (*model.PhotoDB, error)
	ListPhotos(ctx context.Context, ownerID string) ([]model.PhotoDB, error)
	// DeletePhoto removes the record and returns its stored filename so the
	// caller can clean up the blob. The removal is atomic per record: of two
	// concurrent deletes, one gets the filename and the other ErrNotFound.
	DeletePhoto(ctx context.Context, ownerID, photoID string) (string, error)
}

type MongoPhotoDB struct {
	mongoClient      *mongo.Client
	collection       *mongo.Collection
	connectionString string
	databaseName     string
	collectionName   string
	Log              *zap.Logger
}

func (db *MongoPhotoDB) Connect(connectionString, databaseName, collectionName string) error {
	var err error
	db.connectionString = connectionString
	db.databaseName = databaseName
	db.collectionName = collectionName

	db.mongoClient, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	err = db.mongoClient.Ping(context.TODO(), nil)
	if err != nil {
		return err
	}

	db.collection = db.mongoClient.Database(db.databaseName).Collection(db.collectionName)

	db.Log.Info("connected to MongoDB", zap.String("collection", collectionName))
	return nil
}

func (db *MongoPhotoDB) Close() error {
	if db.mongoClient != nil {
		err := db.mongoClient.Disconnect(context.TODO())
		if err != nil {
			return err
		}
		db.Log.Info("disconnected from MongoDB")
	}
	return nil
}

func (db *MongoPhotoDB) SavePhoto(ctx context.Context, photo model.PhotoDB) error {
	_, err := db.collection.InsertOne(ctx, photo)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (db *MongoPhotoDB) GetPhoto(ctx context.Context, ownerID, photoID string) (*model.PhotoDB, error) {
	filter, err := ownedPhotoFilter(ownerID, photoID)
	if err != nil {
		return nil, err
	}

	var photo model.PhotoDB
	err = db.collection.FindOne(ctx, filter).Decode(&photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: photo %s", model.ErrNotFound, photoID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	return &photo, nil
}

func (db *MongoPhotoDB) ListPhotos(ctx context.Context, ownerID string) ([]model.PhotoDB, error) {
	cursor, err := db.collection.Find(ctx, bson.D{{Key: "owner_id", Value: ownerID}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	var photos []model.PhotoDB
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	return photos, nil
}

func (db *MongoPhotoDB) DeletePhoto(ctx context.Context, ownerID, photoID string) (string, error) {
	filter, err := ownedPhotoFilter(ownerID, photoID)
	if err != nil {
		return "", err
	}

	var photo model.PhotoDB
	err = db.collection.FindOneAndDelete(ctx, filter).Decode(&photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", fmt.Errorf("%w: photo %s", model.ErrNotFound, photoID)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	return photo.Filename, nil
}

// ownedPhotoFilter matches exactly one record: the photo with this id that
// belongs to this owner. A malformed id is reported as not-found rather
// than echoed back to the caller.
func ownedPhotoFilter(ownerID, photoID string) (bson.D, error) {
	oid, err := primitive.ObjectIDFromHex(photoID)
	if err != nil {
		return nil, fmt.Errorf("%w: photo %s", model.ErrNotFound, photoID)
	}
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "owner_id", Value: ownerID},
	}, nil
}
