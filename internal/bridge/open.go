package bridge

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/hperssn/blastemst/internal/storage"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageOpener returns the Opener for a configured driver. For sqlite the
// InitDatabase path is a file path; for postgres it is a connection URL.
func StorageOpener(driver string, clock clockwork.Clock) (Opener, error) {
	switch driver {
	case DriverSQLite, "":
		return func(path string) (storage.Repository, error) {
			return storage.NewSQLiteRepository(path, clock)
		}, nil
	case DriverPostgres:
		return func(url string) (storage.Repository, error) {
			return storage.NewPostgresRepository(url, clock)
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
