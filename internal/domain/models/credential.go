// internal/domain/models/credential.go
package models

// Credential is a login record from the logs_login collection.
// ID is the login name. AuthKey is a shared secret compared verbatim;
// AuthKeyHash, when present, is a bcrypt hash of the secret instead.
type Credential struct {
	ID          string `bson:"_id"`
	AuthKey     string `bson:"authKey,omitempty"`
	AuthKeyHash string `bson:"authKeyHash,omitempty"`
}
