package model

import "time"

// Message represents a submission from the public contact form.
type Message struct {
	ID        string     `json:"id" bson:"_id"`
	Name      string     `json:"name" bson:"name"`
	Phone     string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Email     string     `json:"email,omitempty" bson:"email,omitempty"`
	Subject   string     `json:"subject,omitempty" bson:"subject,omitempty"`
	Message   string     `json:"message" bson:"message"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	Deleted   bool       `json:"deleted" bson:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
}

// MessageListOptions selects one side of the inbox.
type MessageListOptions struct {
	// Deleted selects soft-deleted messages instead of active ones.
	Deleted bool
	Limit   int
}
