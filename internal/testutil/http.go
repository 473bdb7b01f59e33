package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/dalemusser/stratalog/internal/app/system/auth"
)

// Login is a loginUser/loginPassword pair for exercising the auth gate.
type Login struct {
	User     string
	Password string
}

// Query returns target with the login added as query parameters.
func (l Login) Query(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		panic(err)
	}
	q := u.Query()
	q.Set(auth.UserParam, l.User)
	q.Set(auth.PasswordParam, l.Password)
	u.RawQuery = q.Encode()
	return u.String()
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertError checks for a {"error": message} body.
func (r *ResponseRecorder) AssertError(t interface{ Errorf(string, ...any) }, message string) {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &body); err != nil {
		t.Errorf("response is not a JSON error: %v (body %s)", err, r.Body.String())
		return
	}
	if body.Error != message {
		t.Errorf("error message: got %q, want %q", body.Error, message)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	body := r.Body.String()
	if !strings.Contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// AssertCookieCleared checks that the response expires the named cookie.
func (r *ResponseRecorder) AssertCookieCleared(t interface{ Errorf(string, ...any) }, name string) {
	for _, c := range r.Result().Cookies() {
		if c.Name == name && c.MaxAge < 0 {
			return
		}
	}
	t.Errorf("cookie %q was not cleared", name)
}
