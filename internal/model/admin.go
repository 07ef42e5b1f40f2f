package model

import "time"

// Admin is an inbox operator. PasswordHash is a bcrypt hash and never leaves the server.
type Admin struct {
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updatedAt"`
}
