// Package store persists records in their DB view.
//
// # Backends
//
//   - SQLite: embedded database through database/sql, with either the cgo
//     driver (github.com/mattn/go-sqlite3, driver name "sqlite3") or the
//     pure Go driver (modernc.org/sqlite, driver name "sqlite")
//   - Memory: in-memory map for tests and dry runs
//
// Each record is stored once per type and identity. The slot is the
// identity hash (record.HashKey), the body is the DB view JSON. Reading a
// record back decodes the body with the type's Read, so aliased names
// round-trip and suppressed default values read back as unset.
//
// # Basic Usage
//
//	s, err := store.NewSQLiteStore(&store.SQLiteConfig{
//	    Path:    "data/records.db",
//	    Driver:  store.DriverPureGo,
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	if err := s.Put(ctx, rec); err != nil {
//	    log.Fatal(err)
//	}
//
//	recordsCh, errCh := s.Stream(ctx, tankType)
//	for rec := range recordsCh {
//	    fmt.Println(rec)
//	}
//	if err := <-errCh; err != nil {
//	    log.Fatal(err)
//	}
package store
