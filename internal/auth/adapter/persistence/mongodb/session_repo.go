package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sessionDocument struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// MongoSessionStore keeps sessions in the "sessions" collection. A TTL index
// on expires_at lets MongoDB purge them; Get also checks expiry because the
// TTL monitor only runs periodically.
type MongoSessionStore struct {
	sessionsCollection *mongo.Collection
	now                func() time.Time
}

// NewMongoSessionStore creates the store and its TTL index
func NewMongoSessionStore(ctx context.Context, db *mongo.Database) (*MongoSessionStore, error) {
	store := &MongoSessionStore{
		sessionsCollection: db.Collection("sessions"),
		now:                time.Now,
	}

	expiresAtIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := store.sessionsCollection.Indexes().CreateOne(ctx, expiresAtIndex); err != nil {
		return nil, fmt.Errorf("failed to create session TTL index: %w", err)
	}

	return store, nil
}

// Create persists a new session
func (s *MongoSessionStore) Create(ctx context.Context, session *model.Session) error {
	if session == nil || session.Token == "" {
		return errors.New("session token cannot be empty")
	}
	role, err := session.Role.MarshalText()
	if err != nil {
		return err
	}

	_, err = s.sessionsCollection.InsertOne(ctx, sessionDocument{
		Token:     session.Token,
		UserID:    session.UserID,
		Role:      string(role),
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	return err
}

// Get retrieves a live session by token
func (s *MongoSessionStore) Get(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.ErrSessionNotFound
	}

	var doc sessionDocument
	err := s.sessionsCollection.FindOne(ctx, bson.M{"_id": token}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	role, err := model.ParseRole(doc.Role)
	if err != nil {
		return nil, model.ErrSessionNotFound
	}
	session := &model.Session{
		Token:     doc.Token,
		UserID:    doc.UserID,
		Role:      role,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}
	if session.IsExpired(s.now()) {
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

// Destroy deletes a session by token
func (s *MongoSessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := s.sessionsCollection.DeleteOne(ctx, bson.M{"_id": token})
	return err
}

var _ repository.SessionStore = (*MongoSessionStore)(nil)
