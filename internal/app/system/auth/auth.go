// Package auth implements the login gate in front of every read route.
//
// A request presents loginUser and loginPassword as query parameters, form
// fields or cookies, in that order of preference. The pair is checked against
// the logs_login collection on every request. On success both values are
// written back as cookies and the request continues with an Identity in its
// context; on any failure both cookies are cleared and the request is
// rejected with 401.
//
// The cookies are a capability token, not a signed session: whoever holds
// them can replay them for as long as the credential exists.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/app/system/authutil"
	"github.com/dalemusser/stratalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalog/internal/domain/models"
	"go.uber.org/zap"
)

// Parameter and cookie names.
const (
	UserParam     = "loginUser"
	PasswordParam = "loginPassword"

	// LogoutUser is the loginUser value that always clears the cookies.
	LogoutUser = "logout"
)

// CredentialGetter looks up a credential by login name.
type CredentialGetter interface {
	Get(ctx context.Context, loginUser string) (models.Credential, error)
}

// Identity is the validated caller of a request.
type Identity struct {
	LoginUser string
}

type ctxKey struct{}

// CurrentIdentity returns the identity the gate established for r.
func CurrentIdentity(r *http.Request) (Identity, bool) {
	id, ok := r.Context().Value(ctxKey{}).(Identity)
	return id, ok
}

func withIdentity(r *http.Request, id Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
}

// WithTestIdentity injects an Identity into the request context for testing.
func WithTestIdentity(r *http.Request, id Identity) *http.Request {
	return withIdentity(r, id)
}

// Gate checks presented credentials against the login store.
type Gate struct {
	creds   CredentialGetter
	cookies *CookieCodec
	logger  *zap.Logger
}

// NewGate creates a Gate.
func NewGate(creds CredentialGetter, cookies *CookieCodec, logger *zap.Logger) *Gate {
	return &Gate{creds: creds, cookies: cookies, logger: logger}
}

// Require is middleware that lets a request through only with a valid
// credential pair.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password := g.presented(r)

		if user == LogoutUser {
			g.clear(w)
			jsonutil.WriteError(w, r, g.logger, apperr.Auth("Logout"))
			return
		}

		id, err := g.verify(r.Context(), user, password)
		if err != nil {
			g.clear(w)
			if errors.Is(err, apperr.ErrStore) {
				g.logger.Error("login lookup failed", zap.String("login_user", user), zap.Error(err))
			} else {
				g.logger.Debug("login rejected", zap.String("login_user", user), zap.Error(err))
			}
			jsonutil.WriteError(w, r, g.logger, apperr.Auth("Bad Login Info."))
			return
		}

		g.cookies.Set(w, UserParam, user)
		g.cookies.Set(w, PasswordParam, password)
		next.ServeHTTP(w, withIdentity(r, id))
	})
}

// presented returns the credential pair, each value taken from the query
// string, then form fields, then cookies.
func (g *Gate) presented(r *http.Request) (user, password string) {
	return g.param(r, UserParam), g.param(r, PasswordParam)
}

func (g *Gate) param(r *http.Request, name string) string {
	// Untrimmed: credentials compare exactly on every path.
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	if v := r.PostFormValue(name); v != "" {
		return v
	}
	v, _ := g.cookies.Read(r, name)
	return v
}

func (g *Gate) verify(ctx context.Context, user, password string) (Identity, error) {
	if user == "" || password == "" {
		return Identity{}, apperr.Auth("missing credentials")
	}
	cred, err := g.creds.Get(ctx, user)
	if err != nil {
		return Identity{}, err
	}
	if !Matches(cred, password) {
		return Identity{}, apperr.Auth("credential mismatch")
	}
	return Identity{LoginUser: cred.ID}, nil
}

// Matches reports whether password is the secret of cred: an exact match of
// AuthKey, or a bcrypt match of AuthKeyHash.
func Matches(cred models.Credential, password string) bool {
	if cred.AuthKey != "" && authutil.EqualKey(password, cred.AuthKey) {
		return true
	}
	if cred.AuthKeyHash != "" {
		return authutil.CheckKeyHash(password, cred.AuthKeyHash)
	}
	return false
}

func (g *Gate) clear(w http.ResponseWriter) {
	g.cookies.Clear(w, UserParam)
	g.cookies.Clear(w, PasswordParam)
}
