package store

import (
	"log/slog"

	"famtask/internal/database"
)

// Open probes the durable SQLite store once, at construction. If the database
// cannot be opened it returns the in-process fallback instead. The engine is
// chosen exactly once; there is no mid-session failover, so a store that
// starts in fallback mode stays there until restart.
func Open(dbPath string, logger *slog.Logger) Store {
	db, err := database.Open(dbPath)
	if err != nil {
		logger.Warn("durable store unreachable, falling back to in-memory ledger",
			"path", dbPath, "error", err)
		return NewMemoryStore()
	}
	logger.Info("using sqlite ledger store", "path", dbPath)
	return NewSQLiteStore(db)
}
