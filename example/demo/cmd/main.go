// Demo wires the full library stack together: a store engine, the borrow
// ledger, the preference analyzer, and the recommendation engine. It seeds
// a small catalog, walks one reader through a few loans and returns, and
// prints the resulting recommendations.
//
// By default it runs against the in-memory engine so it works without any
// infrastructure; with -postgres it connects to the database configured in
// example/shared/config instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caxton-systems/library-catalog-go/example/shared/config"
	"github.com/caxton-systems/library-catalog-go/lending"
	"github.com/caxton-systems/library-catalog-go/library"
	"github.com/caxton-systems/library-catalog-go/library/memoryengine"
	"github.com/caxton-systems/library-catalog-go/library/postgresengine"
	"github.com/caxton-systems/library-catalog-go/recommend"
)

const readerEmail = "pat.reader@example.com"

type stores interface {
	library.CatalogStore
	library.UserStore
	library.LedgerStore
	library.ProfileStore
}

func main() {
	usePostgres := flag.Bool("postgres", false, "run against Postgres instead of the in-memory engine")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	engine, cleanup := buildStores(ctx, *usePostgres, logger)
	defer cleanup()

	ledger, err := lending.NewLedger(engine, engine, lending.WithLogger(logger))
	if err != nil {
		log.Fatal("Failed to create ledger, error: ", err)
	}

	analyzer, err := recommend.NewAnalyzer(
		ledger,
		engine,
		recommend.WithProfileStore(engine),
		recommend.WithAnalyzerLogger(logger),
	)
	if err != nil {
		log.Fatal("Failed to create analyzer, error: ", err)
	}

	recommender, err := recommend.NewEngine(analyzer, engine, recommend.WithEngineLogger(logger))
	if err != nil {
		log.Fatal("Failed to create recommendation engine, error: ", err)
	}

	if seedErr := seed(ctx, engine); seedErr != nil {
		log.Fatal("Failed to seed demo data, error: ", seedErr)
	}

	if runErr := run(ctx, ledger, analyzer, recommender); runErr != nil {
		log.Fatal("Demo failed, error: ", runErr)
	}
}

func buildStores(ctx context.Context, usePostgres bool, logger *slog.Logger) (stores, func()) {
	if !usePostgres {
		return memoryengine.NewEngine(), func() {}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolConfig())
	if err != nil {
		log.Fatal("Failed to create connection pool, error: ", err)
	}

	engine, err := postgresengine.NewFromPGXPool(pool, postgresengine.WithLogger(logger))
	if err != nil {
		log.Fatal("Failed to create store engine, error: ", err)
	}

	return engine, pool.Close
}

func seed(ctx context.Context, engine stores) error {
	user, err := library.BuildUser(readerEmail, "Pat Reader")
	if err != nil {
		return err
	}

	if err = engine.InsertUser(ctx, user); err != nil {
		return err
	}

	books := []struct {
		isbn   string
		title  string
		author string
		genre  string
		rating int
	}{
		{"978-0-441-17271-9", "Dune", "Frank Herbert", "Sci-Fi", 5},
		{"978-0-553-28368-3", "Hyperion", "Dan Simmons", "Sci-Fi", 4},
		{"978-0-441-56959-5", "Neuromancer", "William Gibson", "Sci-Fi", 3},
		{"978-0-765-31178-5", "Mistborn", "Brandon Sanderson", "Fantasy", 5},
		{"978-0-743-27356-5", "The Great Gatsby", "F. Scott Fitzgerald", "Classic", 4},
	}

	for _, b := range books {
		book, buildErr := library.BuildBook(b.isbn, b.title, b.author, b.genre)
		if buildErr != nil {
			return buildErr
		}

		if insertErr := engine.InsertBook(ctx, book); insertErr != nil {
			return insertErr
		}

		if _, ratingErr := engine.UpdateRating(ctx, b.isbn, b.rating); ratingErr != nil {
			return ratingErr
		}
	}

	return nil
}

func run(
	ctx context.Context,
	ledger *lending.Ledger,
	analyzer *recommend.Analyzer,
	recommender *recommend.Engine,
) error {

	for _, isbn := range []string{"978-0-441-17271-9", "978-0-553-28368-3", "978-0-765-31178-5"} {
		if _, err := ledger.RecordBorrow(ctx, readerEmail, isbn); err != nil {
			return err
		}
	}

	if _, err := ledger.ReturnBook(ctx, readerEmail, "978-0-441-17271-9"); err != nil {
		return err
	}

	outstanding, err := ledger.ListOutstanding(ctx, readerEmail)
	if err != nil {
		return err
	}

	fmt.Printf("\noutstanding loans: %d\n", len(outstanding))
	for _, record := range outstanding {
		fmt.Printf("  %s borrowed at %s\n", record.ISBN, record.BorrowedAt.Format("2006-01-02 15:04"))
	}

	genre, found, err := analyzer.PreferredGenre(ctx, readerEmail)
	if err != nil {
		return err
	}

	if found {
		fmt.Printf("\npreferred genre: %s\n", genre)
	} else {
		fmt.Println("\nno preferred genre yet")
	}

	books, err := recommender.Recommend(ctx, readerEmail)
	if err != nil {
		return err
	}

	fmt.Println("\nrecommended:")
	for _, book := range books {
		fmt.Printf("  %s (%s, rating %d)\n", book.Title, book.Genre, book.Rating)
	}

	profile, err := analyzer.SnapshotPreferences(ctx, readerEmail)
	if err != nil {
		return err
	}

	fmt.Printf("\npreference snapshot taken at %s: %s\n", profile.TakenAt.Format("2006-01-02 15:04"), profile.TallyJSON)

	return nil
}
