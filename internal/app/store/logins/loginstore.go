// internal/app/store/logins/loginstore.go
package loginstore

// Terminology: Login Identifiers
//   - LoginUser / _id: the login name presented as loginUser
//   - AuthKey: the shared secret presented as loginPassword

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/app/system/schema"
	"github.com/dalemusser/stratalog/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(schema.LogsLogin)}
}

// Get returns the credential for loginUser. Credentials are read on every
// request and never cached.
func (s *Store) Get(ctx context.Context, loginUser string) (models.Credential, error) {
	var cred models.Credential
	err := s.c.FindOne(ctx, bson.M{"_id": loginUser}).Decode(&cred)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Credential{}, apperr.NotFound("unknown login")
	}
	if err != nil {
		return models.Credential{}, apperr.Store("get login", err)
	}
	return cred, nil
}

// Upsert writes cred, replacing any existing credential with the same _id.
func (s *Store) Upsert(ctx context.Context, cred models.Credential) error {
	cred.ID = strings.TrimSpace(cred.ID)
	if cred.ID == "" {
		return apperr.Validation("login name is required")
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.c.ReplaceOne(ctx, bson.M{"_id": cred.ID}, cred, opts); err != nil {
		return apperr.Store("upsert login", err)
	}
	return nil
}
