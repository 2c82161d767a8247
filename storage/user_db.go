package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cloudalbum/model"
)

// UserDB stores registered accounts for the identity provider.
type UserDB interface {
	CreateUser(ctx context.Context, user model.UserDB) error
	GetUserByEmail(ctx context.Context, email string) (*model.UserDB, error)
}

type MongoUserDB struct {
	mongoClient      *mongo.Client
	collection       *mongo.Collection
	connectionString string
	databaseName     string
	collectionName   string
	Log              *zap.Logger
}

func (db *MongoUserDB) Connect(connectionString, databaseName, collectionName string) error {
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

	// One account per email address.
	_, err = db.collection.Indexes().CreateOne(context.TODO(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	db.Log.Info("connected to MongoDB", zap.String("collection", collectionName))
	return nil
}

func (db *MongoUserDB) Close() error {
	if db.mongoClient != nil {
		err := db.mongoClient.Disconnect(context.TODO())
		if err != nil {
			return err
		}
		db.Log.Info("disconnected from MongoDB")
	}
	return nil
}

func (db *MongoUserDB) CreateUser(ctx context.Context, user model.UserDB) error {
	_, err := db.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", model.ErrDuplicateEmail, user.Email)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (db *MongoUserDB) GetUserByEmail(ctx context.Context, email string) (*model.UserDB, error) {
	var user model.UserDB
	err := db.collection.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return &user, nil
}
