// Package mongodb implements the credential and chat-log stores on top of a
// MongoDB deployment. The unique index on users.email is the final authority
// on email uniqueness; the service layer's pre-check only improves error
// latency, it is not relied on for correctness.
package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/goliatone/careerpilot"
)

const (
	usersCollection    = "users"
	chatLogsCollection = "chat_logs"
)

// Store wraps a connected MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger careerpilot.Logger
}

// Connect dials the deployment, verifies it is reachable, and ensures the
// indexes the auth core depends on.
func Connect(ctx context.Context, uri, database string, logger careerpilot.Logger) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, careerpilot.WrapStoreError(err, "could not configure mongo client")
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, careerpilot.WrapStoreError(err, "mongo deployment unreachable")
	}

	s := &Store{
		client: client,
		db:     client.Database(database),
		logger: logger,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	logger.Info("mongo connected to %s", database)

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return careerpilot.WrapStoreError(err, "could not ensure unique email index")
	}
	return nil
}

// Users returns the credential store bound to this database.
func (s *Store) Users() careerpilot.Users {
	return &users{coll: s.db.Collection(usersCollection)}
}

// ChatLogs returns the chat-log store bound to this database.
func (s *Store) ChatLogs() careerpilot.ChatLogs {
	return &chatLogs{coll: s.db.Collection(chatLogsCollection)}
}

// Close releases the underlying connections.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type users struct {
	coll *mongo.Collection
}

func (u *users) Create(ctx context.Context, account *careerpilot.Account) (*careerpilot.Account, error) {
	if _, err := u.coll.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, careerpilot.ErrEmailTaken
		}
		return nil, careerpilot.WrapStoreError(err, "insert account failed")
	}
	return account, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*careerpilot.Account, error) {
	return u.findOne(ctx, bson.M{"email": careerpilot.NormalizeEmail(email)})
}

func (u *users) GetByID(ctx context.Context, id string) (*careerpilot.Account, error) {
	return u.findOne(ctx, bson.M{"_id": id})
}

func (u *users) findOne(ctx context.Context, filter bson.M) (*careerpilot.Account, error) {
	var account careerpilot.Account
	if err := u.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, careerpilot.ErrAccountNotFound
		}
		return nil, careerpilot.WrapStoreError(err, "account lookup failed")
	}
	return &account, nil
}

func (u *users) UpdateProfile(ctx context.Context, id string, update careerpilot.ProfileUpdate) (*careerpilot.Account, error) {
	now := time.Now()

	set := bson.M{
		"education_level": update.EducationLevel,
		"skills":          update.Skills,
		"career_goal":     update.CareerGoal,
		"updated_at":      now,
	}
	if update.FullName != "" {
		set["name"] = update.FullName
	}
	if update.Onboarded {
		set["onboarded"] = true
		set["onboarded_at"] = now
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var account careerpilot.Account
	err := u.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, careerpilot.ErrAccountNotFound
		}
		return nil, careerpilot.WrapStoreError(err, "profile update failed")
	}
	return &account, nil
}

type chatLogs struct {
	coll *mongo.Collection
}

func (c *chatLogs) Record(ctx context.Context, turn *careerpilot.ChatTurn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	if _, err := c.coll.InsertOne(ctx, turn); err != nil {
		return careerpilot.WrapStoreError(err, "record chat turn failed")
	}
	return nil
}
