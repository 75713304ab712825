package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-io/config"
	"github.com/theoremus-urban-solutions/gtfs-io/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-io/internal"
	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/store"
)

func main() {
	mode := flag.String("mode", "stats", "stats|convert|export-sqlite|snapshot")
	configPath := flag.String("config", "", "config file (default: search config.yml)")
	feedName := flag.String("feed", "", "feed name from config.feeds[]")
	source := flag.String("source", "", "GTFS URL, zip file or directory (overrides config)")
	out := flag.String("out", "", "output: .zip file or directory (convert), database (export-sqlite), snapshot file")
	compression := flag.String("compression", "", "table compression for directory output: gzip|zstd|xz")
	flag.Parse()

	internal.InitLogging(*mode == "stats")

	var err error
	if *configPath != "" {
		err = config.LoadAppConfigFrom(*configPath)
	} else {
		err = config.LoadAppConfig()
	}
	if err != nil && *source == "" {
		log.Fatalf("failed to load config: %v", err)
	}

	src := config.SelectFeed(*feedName).Source
	if *source != "" {
		src = *source
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reader, err := newFetcher(config.Config.Reader).open(ctx, src)
	if err != nil {
		log.Fatalf("failed to open %s: %v", src, err)
	}
	defer reader.Close()
	log.Printf("opened %s with tables %v", src, reader.Tables())

	switch *mode {
	case "stats":
		err = runStats(ctx, reader)
	case "convert":
		err = runConvert(ctx, reader, *out, gtfs.Compression(*compression))
	case "export-sqlite":
		err = runExport(ctx, reader, *out)
	case "snapshot":
		err = runSnapshot(ctx, reader, *out)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Printf("%s failed: %v", *mode, err)
		os.Exit(1)
	}
}

func runStats(ctx context.Context, reader *gtfs.Reader) error {
	feed, loadErr := reader.LoadAsync(ctx)

	counts := feed.Count()
	names := make([]schema.TableName, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return schema.Order(names[i]) < schema.Order(names[j]) })
	for _, name := range names {
		fmt.Printf("%-20s %d\n", name, counts[name])
	}
	if loadErr != nil {
		return loadErr
	}

	idx, err := gtfs.NewIndex(feed)
	if err != nil {
		return err
	}
	fmt.Printf("\nagency %q (%s): %d stops, %d routes, %d trips\n",
		idx.AgencyName(), idx.AgencyTimezone(), len(idx.Stops()), len(idx.Routes()), len(idx.Trips()))
	return nil
}

func runConvert(ctx context.Context, reader *gtfs.Reader, out string, c gtfs.Compression) error {
	if out == "" {
		return fmt.Errorf("convert needs -out")
	}
	opts := config.Config.Writer
	if c != gtfs.CompressNone {
		opts.Compression = c
	}

	if strings.HasSuffix(strings.ToLower(out), ".zip") {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := gtfs.WriteZip(f, reader.Feed(), opts); err != nil {
			f.Close()
			return err
		}
		log.Printf("wrote %s", out)
		return f.Close()
	}

	feed := reader.AsyncFeed()
	defer feed.Close()
	if err := gtfs.WriteDir(ctx, out, feed, opts); err != nil {
		return err
	}
	log.Printf("wrote %s", out)
	return nil
}

func runExport(ctx context.Context, reader *gtfs.Reader, out string) error {
	path := config.Config.SQLite.Path
	if out != "" {
		path = out
	}
	if path == "" {
		path = "gtfs.db"
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.Export(ctx, reader.Feed())
	if err != nil {
		return err
	}
	log.Printf("run %s exported to %s: %v", res.RunID, path, res.Counts)
	return nil
}

func runSnapshot(ctx context.Context, reader *gtfs.Reader, out string) error {
	if out == "" {
		return fmt.Errorf("snapshot needs -out")
	}
	feed, err := reader.LoadAsync(ctx)
	if err != nil {
		return err
	}
	if err := gtfs.SerializeFeedToFile(feed, out); err != nil {
		return err
	}
	log.Printf("snapshot of %d tables written to %s", feed.Len(), out)
	return nil
}
