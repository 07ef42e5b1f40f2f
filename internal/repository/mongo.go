package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contactbox/backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	defaultMongoDatabase   = "contact"
	messagesCollectionName = "messages"
	adminsCollectionName   = "admins"
)

// NewMongoDatabase creates a client for uri. The database name comes from
// database, then the URI path, then defaults to "contact".
func NewMongoDatabase(uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetBSONOptions(mongoBSONOptions()))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if database == "" {
		database = mongoDatabaseFromURI(uri)
	}
	return client, client.Database(database), nil
}

// mongoBSONOptions decodes ObjectID _id values into the string Message.ID,
// so documents written before ids became UUIDs stay readable.
func mongoBSONOptions() *options.BSONOptions {
	return &options.BSONOptions{ObjectIDAsHexString: true}
}

func mongoDatabaseFromURI(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	i := strings.Index(rest, "/")
	if i < 0 {
		return defaultMongoDatabase
	}
	name := rest[i+1:]
	if j := strings.IndexAny(name, "?#"); j >= 0 {
		name = name[:j]
	}
	if name == "" {
		return defaultMongoDatabase
	}
	return name
}

type mongoPinger struct {
	client *mongo.Client
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, nil)
}

// EnsureMongoIndexes creates the listing index on messages and the unique
// username index on admins. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(messagesCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "deleted", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "deleted", Value: 1}, {Key: "deletedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	_, err = db.Collection(adminsCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create admin index: %w", err)
	}
	return nil
}

// MongoMessageRepository stores messages as documents keyed by their UUID.
// Older documents keyed by an ObjectID are read and updated the same way.
type MongoMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository creates a MongoMessageRepository.
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{coll: db.Collection(messagesCollectionName)}
}

var _ MessageRepository = (*MongoMessageRepository)(nil)

// byID matches a string _id, or the ObjectID when id is its 24-digit hex form.
func byID(id string) bson.D {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{id, oid}}}}}
	}
	return bson.D{{Key: "_id", Value: id}}
}

func decodeMessage(res *mongo.SingleResult) (*model.Message, error) {
	var m model.Message
	if err := res.Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return normalizeMessage(&m), nil
}

func normalizeMessage(m *model.Message) *model.Message {
	m.CreatedAt = m.CreatedAt.UTC()
	if m.DeletedAt != nil {
		t := m.DeletedAt.UTC()
		m.DeletedAt = &t
	}
	return m
}

// Save inserts msg as a new document.
func (r *MongoMessageRepository) Save(ctx context.Context, msg *model.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

// FindByID returns ErrNotFound when no document matches.
func (r *MongoMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	return decodeMessage(r.coll.FindOne(ctx, byID(id)))
}

// List returns one side of the inbox, newest first.
func (r *MongoMessageRepository) List(ctx context.Context, opts model.MessageListOptions) ([]*model.Message, error) {
	sort := bson.D{{Key: "createdAt", Value: -1}}
	if opts.Deleted {
		sort = bson.D{{Key: "deletedAt", Value: -1}, {Key: "createdAt", Value: -1}}
	}
	cur, err := r.coll.Find(ctx,
		bson.D{{Key: "deleted", Value: opts.Deleted}},
		options.Find().SetSort(sort).SetLimit(int64(opts.Limit)),
	)
	if err != nil {
		return nil, err
	}
	var messages []*model.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	for _, m := range messages {
		normalizeMessage(m)
	}
	return messages, nil
}

// MarkDeleted soft-deletes with a single findAndModify. Without refresh the
// filter only matches active documents, so an already-deleted message keeps
// its deletedAt and is returned unchanged.
func (r *MongoMessageRepository) MarkDeleted(ctx context.Context, id string, at time.Time, refresh bool) (*model.Message, error) {
	filter := byID(id)
	if !refresh {
		filter = append(filter, bson.E{Key: "deleted", Value: false})
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "deleted", Value: true},
		{Key: "deletedAt", Value: at},
	}}}
	m, err := decodeMessage(r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)))
	if errors.Is(err, ErrNotFound) && !refresh {
		return r.FindByID(ctx, id)
	}
	return m, err
}

// Restore clears the deletion flag and removes deletedAt.
func (r *MongoMessageRepository) Restore(ctx context.Context, id string) (*model.Message, error) {
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "deleted", Value: false}}},
		{Key: "$unset", Value: bson.D{{Key: "deletedAt", Value: ""}}},
	}
	return decodeMessage(r.coll.FindOneAndUpdate(ctx, byID(id), update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)))
}

// Delete removes the document permanently.
func (r *MongoMessageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoAdminRepository stores admins keyed by a unique username index.
type MongoAdminRepository struct {
	coll *mongo.Collection
}

// NewMongoAdminRepository creates a MongoAdminRepository.
func NewMongoAdminRepository(db *mongo.Database) *MongoAdminRepository {
	return &MongoAdminRepository{coll: db.Collection(adminsCollectionName)}
}

var _ AdminRepository = (*MongoAdminRepository)(nil)

// FindByUsername returns ErrNotFound for unknown usernames.
func (r *MongoAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := r.coll.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert replaces the password hash of username, creating the document when
// it does not exist yet.
func (r *MongoAdminRepository) Upsert(ctx context.Context, admin *model.Admin) error {
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "passwordHash", Value: admin.PasswordHash},
			{Key: "updatedAt", Value: admin.UpdatedAt},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: admin.UpdatedAt}}},
	}
	var stored model.Admin
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "username", Value: admin.Username}},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return err
	}
	admin.CreatedAt = stored.CreatedAt.UTC()
	admin.UpdatedAt = stored.UpdatedAt.UTC()
	return nil
}
