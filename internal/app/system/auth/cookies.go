package auth

import (
	"net/http"
	"net/url"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// minHashKeyLen is the shortest cookie hash key accepted in production.
const minHashKeyLen = 32

// CookieCodec reads and writes the login cookies. Without a hash key values
// are stored URL-escaped in the clear; with one they are MAC-authenticated
// by securecookie and a tampered cookie reads as absent.
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
	logger *zap.Logger
}

// CookieConfigError is returned when the cookie hash key is unusable.
type CookieConfigError struct {
	Message string
}

func (e *CookieConfigError) Error() string {
	return e.Message
}

// NewCookieCodec creates a codec. secure marks cookies Secure and refuses
// a weak hash key.
func NewCookieCodec(hashKey string, secure bool, logger *zap.Logger) (*CookieCodec, error) {
	c := &CookieCodec{secure: secure, logger: logger}
	if hashKey == "" {
		return c, nil
	}

	if len(hashKey) < minHashKeyLen {
		if secure {
			return nil, &CookieConfigError{Message: "cookie hash key is too weak for production; provide ≥32 random chars"}
		}
		logger.Warn("cookie hash key is weak; 32+ random chars required in production",
			zap.Int("length", len(hashKey)))
	}

	c.sc = securecookie.New([]byte(hashKey), nil)
	return c, nil
}

// Signed reports whether cookie values are authenticated.
func (c *CookieCodec) Signed() bool {
	return c.sc != nil
}

// Read returns the decoded value of cookie name.
func (c *CookieCodec) Read(r *http.Request, name string) (string, bool) {
	ck, err := r.Cookie(name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	if c.sc == nil {
		v, err := url.QueryUnescape(ck.Value)
		if err != nil {
			return "", false
		}
		return v, true
	}

	var v string
	if err := c.sc.Decode(name, ck.Value, &v); err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			c.logger.Debug("login cookie rejected", zap.String("cookie", name), zap.Error(err))
		}
		return "", false
	}
	return v, true
}

// Set writes cookie name with value.
func (c *CookieCodec) Set(w http.ResponseWriter, name, value string) {
	encoded := url.QueryEscape(value)
	if c.sc != nil {
		var err error
		encoded, err = c.sc.Encode(name, value)
		if err != nil {
			c.logger.Error("encode login cookie", zap.String("cookie", name), zap.Error(err))
			return
		}
	}
	http.SetCookie(w, c.cookie(name, encoded, 0))
}

// Clear expires cookie name.
func (c *CookieCodec) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, c.cookie(name, "", -1))
}

func (c *CookieCodec) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
