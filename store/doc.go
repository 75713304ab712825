/*
Package store exports GTFS feeds into SQLite.

Every GTFS table gets a table named gtfs_<table> with columns typed from the
schema (TEXT, INTEGER, REAL). Each Export is one import run identified by a
UUID, so several versions of a feed can live in the same database:

	db, err := store.Open("gtfs.db")
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.Export(ctx, reader.Feed())
	stops, err := db.Records(ctx, res.RunID, schema.Stops)

Absent cells and blank enumeration cells are stored as NULL.
*/
package store
