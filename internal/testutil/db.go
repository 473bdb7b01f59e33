// Package testutil holds helpers shared by the store-backed and HTTP tests.
package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratalog/internal/app/system/schema"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// TestDBURI is the MongoDB the tests use unless STRATALOG_TEST_MONGO_URI is set.
	TestDBURI = "mongodb://localhost:27017"
	// TestDBName prefixes every per-test database.
	TestDBName = "stratalog_test"

	testURIEnv = "STRATALOG_TEST_MONGO_URI"

	// MongoDB database names are limited to 63 bytes. The prefix, the test
	// name and an 8-char random suffix must fit.
	maxTestNameLen = 63 - len(TestDBName) - 2 - 8
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

func testURI() string {
	if uri := os.Getenv(testURIEnv); uri != "" {
		return uri
	}
	return TestDBURI
}

// sharedClient connects once per test binary through the same pooled
// connector the service uses.
func sharedClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		pool := wafflemongo.DefaultPoolConfig()
		pool.MinPoolSize = 0
		client, clientErr = wafflemongo.ConnectWithPool(ctx, testURI(), TestDBName, pool)
		if clientErr != nil {
			return
		}
		clientErr = client.Ping(ctx, nil)
	})
	return client, clientErr
}

// SetupTestDB returns a fresh database with the logs schema reconciled, the
// same state a worker sees after the supervisor has started. Every call gets
// its own database, dropped when the test ends. Tests are skipped when no
// MongoDB is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := sharedClient()
	if err != nil {
		t.Skipf("MongoDB not available at %s: %v", testURI(), err)
	}

	db := c.Database(DatabaseName(t.Name()))

	ctx, cancel := TestContext()
	defer cancel()

	if err := schema.Reconcile(ctx, db, schema.Default()); err != nil {
		t.Fatalf("reconcile schema: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop %s: %v", db.Name(), err)
		}
	})

	return db
}

// DatabaseName returns a unique, valid database name for a test. Names of
// long subtests are truncated, so a random suffix keeps them apart.
func DatabaseName(testName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, testName)
	if len(name) > maxTestNameLen {
		name = name[:maxTestNameLen]
	}
	return TestDBName + "_" + name + "_" + uuid.NewString()[:8]
}

// TestContext returns a context with a reasonable timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
