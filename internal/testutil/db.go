// Package testutil provides shared helpers for integration and handler
// tests: a disposable Mongo database per test, data fixtures, and request
// helpers.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/melodykit/melodyshare/internal/app/system/indexes"
)

// TestMongoURIEnv names the environment variable that points tests at a
// Mongo instance. Tests that need a database skip when it is unset and no
// local instance answers.
const TestMongoURIEnv = "MELODYSHARE_TEST_MONGO_URI"

const defaultTestMongoURI = "mongodb://localhost:27017"

// SetupTestDB connects to the test Mongo instance and hands back a database
// with a unique name, dropped again when the test finishes. Tests skip
// (not fail) when no instance is reachable, so the unit suite stays green on
// machines without Mongo.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(TestMongoURIEnv)
	if uri == "" {
		uri = defaultTestMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test Mongo at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("skipping: test Mongo at %s not reachable: %v", uri, err)
	}

	name := fmt.Sprintf("melodyshare_test_%d", time.Now().UnixNano())
	db := client.Database(name)

	if err := indexes.EnsureAll(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		t.Fatalf("ensuring indexes on %s: %v", name, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("dropping test database %s: %v", name, err)
		}
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with a deadline generous enough for any
// single store operation in a test.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
