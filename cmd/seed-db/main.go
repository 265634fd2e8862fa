package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/trialkart/checkout-api/internal/domain/auth"
	"github.com/trialkart/checkout-api/internal/domain/catalog"
	"github.com/trialkart/checkout-api/internal/domain/gst"
	"github.com/trialkart/checkout-api/internal/storage/postgres"
)

type productJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	RetailPrice   decimal.Decimal `json:"retail_price"`
	MRP           decimal.Decimal `json:"mrp"`
	Category      string          `json:"category"`
	ImageURL      string          `json:"image_url"`
	PickupPincode string          `json:"pickup_pincode"`
	TrialEligible bool            `json:"trial_eligible"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or TRIALKART_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or TRIALKART_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("TRIALKART_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or TRIALKART_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("TRIALKART_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedGSTRates(ctx, postgres.NewGSTRateRepository(pool)); err != nil {
		return errors.Wrap(err, "seed gst rates")
	}

	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		err := repo.Upsert(ctx, catalog.Product{
			ID:            p.ID,
			Name:          p.Name,
			RetailPrice:   p.RetailPrice,
			MRP:           p.MRP,
			Category:      p.Category,
			ImageURL:      p.ImageURL,
			PickupPincode: p.PickupPincode,
			TrialEligible: p.TrialEligible,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

// seedGSTRates installs the standard Indian GST slabs per category plus the
// Default fallback row applied to uncategorised products.
func seedGSTRates(ctx context.Context, repo *postgres.GSTRateRepository) error {
	slog.Info("seeding gst rates")

	rates := []gst.RateEntry{
		{Category: "Electronics", Rate: decimal.RequireFromString("0.18")},
		{Category: "Apparel", Rate: decimal.RequireFromString("0.12")},
		{Category: "Footwear", Rate: decimal.RequireFromString("0.12")},
		{Category: "Books", Rate: decimal.Zero},
		{Category: "Grocery", Rate: decimal.RequireFromString("0.05")},
		{Category: gst.DefaultCategory, Rate: decimal.RequireFromString("0.18")},
	}

	for _, e := range rates {
		if err := repo.Upsert(ctx, e); err != nil {
			return errors.Wrapf(err, "upsert gst rate %s", e.Category)
		}

		slog.Info("upserted gst rate",
			slog.String("category", e.Category),
			slog.String("rate", e.Rate.String()),
		)
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	err := repo.Upsert(ctx, auth.APIKeyInfo{
		ID:      "default",
		KeyHash: keyHash,
		Name:    "Default test key",
		UserID:  "seed-user",
	})
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("name", "Default test key"))

	return nil
}
