package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserDB is a registered account. PasswordHash is a bcrypt hash; the plain
// password never touches the store.
type UserDB struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Username     string             `bson:"username,omitempty"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
}
