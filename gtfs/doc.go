/*
Package gtfs reads and writes whole GTFS static feeds.

A feed is a set of tables, each a stream of csvio records. The same feed can
be held three ways:

  - LazyFeed: one single-pass stream per table, read on demand
  - AsyncFeed: one context-aware stream per table, read on background goroutines
  - LoadedFeed: every table in memory, re-traversable

The required tables (agency, stops, routes, trips, stop_times) are always
present, possibly empty. Other tables are present only when the source has them.

# Basic Usage

Open an archive and load it:

	reader, err := gtfs.OpenZip("gtfs.zip", gtfs.ReaderOptions{})
	if err != nil {
	    log.Fatal(err)
	}
	defer reader.Close()

	feed, err := reader.Load()
	if err != nil {
	    // feed still holds every table that decoded; err lists the others
	    log.Printf("load: %v", err)
	}
	for e := range feed.Tables() {
	    log.Printf("%s: %d records", e.Name, len(e.Records))
	}

Stream a large table without loading it:

	lazy := reader.Feed()
	stopTimes, _ := lazy.Table(schema.StopTimes)
	for rec, err := range stopTimes.All() {
	    ...
	}

Load several tables at once:

	feed, err := reader.LoadAsync(ctx)

# Typed Rows

TableIO maps records to a row type. StructIO uses `csv` struct tags:

	io, _ := gtfs.StructIO[gtfs.Stop](schema.Stops)
	stops, err := io.ReadContent(content)

# Writing

WriteZip, WriteDir and WriteFiles drive each present table through the
encoder, header first, and append the blocks to the sink unchanged.

# Performance: Cache the Feed

Decoding a large feed takes seconds. SerializeFeed stores a LoadedFeed as a
protobuf snapshot that loads much faster:

	_ = gtfs.SerializeFeedToFile(feed, "/cache/feed.pb")
	feed, err := gtfs.DeserializeFeedFromFile("/cache/feed.pb")

# Index

NewIndex builds id lookups (stop names, route types, trip stop sequences,
shapes) over a LoadedFeed. It does not check references between tables.
*/
package gtfs
