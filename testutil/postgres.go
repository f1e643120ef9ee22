package testutil

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/iepapp/iep/storage/database"
)

// TestDatabaseURLEnv names the Postgres URL of the integration tests.
const TestDatabaseURLEnv = "IEP_TEST_DATABASE_URL"

// PrepareDB connects to the integration test database and applies the migrations.
// The test is skipped when IEP_TEST_DATABASE_URL is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv(TestDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set", TestDatabaseURLEnv)
	}

	db, err := sqlx.Open("postgres", url)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}
