package mongo

// Package mongo provides MongoDB-backed adapters for the invoice system.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/ports"
)

const sessionCollection = "sessions"

// SessionStore is a MongoDB-backed session store. The session id is the
// document _id, so uniqueness is enforced by the collection itself, and
// refresh/delete are single-document atomic operations.
type SessionStore struct {
	coll *mongo.Collection
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a session store on the given database.
func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{coll: db.Collection(sessionCollection)}
}

// EnsureIndexes creates the expires_at index backing the sweeper's range
// delete. Safe to call on every startup.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create session indexes: %w", err)
	}
	return nil
}

func (s *SessionStore) Create(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	if _, err := s.coll.InsertOne(ctx, sess); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ports.ErrDuplicateSession, sess.ID)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) Find(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	var sess domainauth.Session
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sess)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainauth.Session{}, fmt.Errorf("%w: %s", ports.ErrSessionNotFound, id)
		}
		return domainauth.Session{}, fmt.Errorf("find session: %w", err)
	}
	return sess, nil
}

// Refresh advances expires_at in a single conditional update. When the
// session was deleted concurrently the filter matches nothing and the
// method reports false instead of resurrecting the document.
func (s *SessionStore) Refresh(ctx context.Context, id string, newExpiry time.Time) (bool, error) {
	if id == "" {
		return false, nil
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"expires_at": newExpiry}},
	)
	if err != nil {
		return false, fmt.Errorf("refresh session: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}
