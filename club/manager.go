package club

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Manager wires the registry, ledger and schedule over one Database, using
// the database itself as the user directory and book catalogue.
type Manager struct {
	db *Database

	Clubs    *Registry
	Members  *Ledger
	Schedule *Schedule
}

// NewManager opens (or creates) the SQLite database at dbPath.
func NewManager(dbPath string, busyTimeout time.Duration, log logrus.FieldLogger, opts ...Option) (*Manager, error) {
	db, err := NewDatabase(dbPath, busyTimeout, opts...)
	if err != nil {
		return nil, err
	}
	return newManager(db, db, db, log), nil
}

func newManager(db *Database, users UserDirectory, books BookCatalog, log logrus.FieldLogger) *Manager {
	return &Manager{
		db:       db,
		Clubs:    NewRegistry(db, users, log.WithField("component", "registry")),
		Members:  NewLedger(db, users, log.WithField("component", "ledger")),
		Schedule: NewSchedule(db, users, books, log.WithField("component", "schedule")),
	}
}

// DB exposes the store for user registration and book lookups.
func (m *Manager) DB() *Database { return m.db }

// Close closes the underlying database.
func (m *Manager) Close() error { return m.db.Close() }
