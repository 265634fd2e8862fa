// Command pincode-ingest loads courier serviceability dumps into the
// serviceable_pincodes table. Each courier publishes a gzip-compressed dump
// with one pincode per line; the file name (minus .gz) is the courier name.
// Dumps repeat pincodes heavily, so each file is deduplicated through a
// bloom filter before hitting the database.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/trialkart/checkout-api/internal/domain/shipping"
	"github.com/trialkart/checkout-api/internal/storage/postgres"
)

const (
	// India has under 160k live pincodes; dumps repeat them millions of
	// times, so the filter is sized for the distinct set.
	bloomCapacity = 200_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing <courier>.gz pincode dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("pincode ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("pincode ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list dump files")
	}
	if len(files) == 0 {
		return errors.Errorf("no .gz dumps found in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewPincodeRepository(pool)

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(ingestFile(ctx, repo, f))
	}

	return g.Wait()
}

// ingestFile streams one courier dump, deduplicates it through a bloom
// filter, and inserts each distinct valid pincode. Cross-courier overlap is
// handled by the insert conflict clause.
func ingestFile(ctx context.Context, repo *postgres.PincodeRepository, path string) func() error {
	return func() error {
		courier := strings.TrimSuffix(filepath.Base(path), ".gz")
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

		var lines, inserted, invalid uint64
		err := streamGzFile(ctx, path, func(line string) error {
			lines++
			if lines%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.String("courier", courier),
					slog.Uint64("lines", lines),
					slog.Uint64("inserted", inserted),
				)
			}

			pincode := strings.TrimSpace(line)
			if !shipping.ValidPincode(pincode) {
				invalid++
				return nil
			}
			if seen.TestAndAddString(pincode) {
				return nil
			}

			if err := repo.Insert(ctx, pincode, courier); err != nil {
				return errors.Wrapf(err, "insert pincode %s", pincode)
			}
			inserted++
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "ingest %s", path)
		}

		slog.Info("ingest complete",
			slog.String("courier", courier),
			slog.Uint64("lines", lines),
			slog.Uint64("inserted", inserted),
			slog.Uint64("invalid", invalid),
		)
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
