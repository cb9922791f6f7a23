// Command seed-db loads demo catalog data, an address book, and API keys
// into the storefront database.
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
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/repository"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	OldPrice    decimal.Decimal `json:"oldPrice"`
	Image       string          `json:"image"`
	Brand       string          `json:"brand"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Stock       int             `json:"stock"`
}

type addressJSON struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Region   string `json:"region"`
	District string `json:"district"`
	Landmark string `json:"landmark"`
	ShipTo   string `json:"shipTo"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		addressFile  string
		apiKey       string
		adminKey     string
		pepper       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&addressFile, "addresses-file", "db/seed/addresses.json", "path to addresses JSON file")
	flag.StringVar(&apiKey, "api-key", "", "customer API key to seed (or SHOP_SEED_API_KEY env)")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed (or SHOP_SEED_ADMIN_KEY env)")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHOP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHOP_SEED_API_KEY")
	}
	if adminKey == "" {
		adminKey = os.Getenv("SHOP_SEED_ADMIN_KEY")
	}
	if apiKey == "" || adminKey == "" {
		slog.Error("API keys are required: set --api-key/--admin-key or SHOP_SEED_API_KEY/SHOP_SEED_ADMIN_KEY")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("SHOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, addressFile, apiKey, adminKey, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, addressFile, apiKey, adminKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedAddresses(ctx, pool, addressFile); err != nil {
		return errors.Wrap(err, "seed addresses")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAPIKey(ctx, pool, "demo-customer", apiKey, pepper, "user-demo", "customer"); err != nil {
		return errors.Wrap(err, "seed customer api key")
	}
	if err := seedAPIKey(ctx, pool, "demo-admin", adminKey, pepper, "user-admin", "admin"); err != nil {
		return errors.Wrap(err, "seed admin api key")
	}

	return nil
}

const upsertProductSQL = `INSERT INTO products (id, name, price, old_price, image, brand, shipping_fee, stock)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, price = EXCLUDED.price, old_price = EXCLUDED.old_price,
		image = EXCLUDED.image, brand = EXCLUDED.brand,
		shipping_fee = EXCLUDED.shipping_fee, stock = EXCLUDED.stock`

func seedProducts(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading products file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		_, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Price, p.OldPrice, p.Image, p.Brand, p.ShippingFee, p.Stock,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

const upsertAddressSQL = `INSERT INTO addresses (id, user_id, username, phone, address, city, region, district, landmark, ship_to)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		user_id = EXCLUDED.user_id, username = EXCLUDED.username, phone = EXCLUDED.phone,
		address = EXCLUDED.address, city = EXCLUDED.city, region = EXCLUDED.region,
		district = EXCLUDED.district, landmark = EXCLUDED.landmark, ship_to = EXCLUDED.ship_to`

func seedAddresses(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading addresses file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read addresses file")
	}

	var addrs []addressJSON
	if err := json.Unmarshal(data, &addrs); err != nil {
		return errors.Wrap(err, "parse addresses JSON")
	}

	slog.Info("upserting addresses", slog.Int("count", len(addrs)))

	for _, a := range addrs {
		_, err := pool.Exec(ctx, upsertAddressSQL,
			a.ID, a.UserID, a.Username, a.Phone, a.Address, a.City, a.Region, a.District, a.Landmark, a.ShipTo,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert address %s", a.ID)
		}
	}

	return nil
}

const upsertCouponSQL = `INSERT INTO coupons (code, discount_type, discount_value, min_order_amount, max_order_amount, expires_at, active, usage_limit)
	VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
	ON CONFLICT (code) DO UPDATE SET
		discount_type = EXCLUDED.discount_type, discount_value = EXCLUDED.discount_value,
		min_order_amount = EXCLUDED.min_order_amount, max_order_amount = EXCLUDED.max_order_amount,
		expires_at = EXCLUDED.expires_at, active = TRUE, usage_limit = EXCLUDED.usage_limit`

type couponSeed struct {
	code         string
	discountType string
	value        string
	minOrder     string
	maxOrder     string
	validFor     time.Duration
	usageLimit   int32
}

var demoCoupons = []couponSeed{
	{code: "WELCOME10", discountType: "percentage", value: "10", minOrder: "0", maxOrder: "10000", validFor: 365 * 24 * time.Hour, usageLimit: 0},
	{code: "FLAT50", discountType: "fixed", value: "50", minOrder: "100", maxOrder: "5000", validFor: 90 * 24 * time.Hour, usageLimit: 1},
	{code: "BIGSPENDER", discountType: "percentage", value: "25", minOrder: "1000", maxOrder: "5000", validFor: 30 * 24 * time.Hour, usageLimit: 3},
	{code: "EXPIRED10", discountType: "percentage", value: "10", minOrder: "0", maxOrder: "10000", validFor: -24 * time.Hour, usageLimit: 0},
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("upserting coupons", slog.Int("count", len(demoCoupons)))

	now := time.Now()
	for _, c := range demoCoupons {
		value, err := decimal.NewFromString(c.value)
		if err != nil {
			return errors.Wrapf(err, "parse discount value for %s", c.code)
		}
		minOrder, err := decimal.NewFromString(c.minOrder)
		if err != nil {
			return errors.Wrapf(err, "parse min order amount for %s", c.code)
		}
		maxOrder, err := decimal.NewFromString(c.maxOrder)
		if err != nil {
			return errors.Wrapf(err, "parse max order amount for %s", c.code)
		}

		_, err = pool.Exec(ctx, upsertCouponSQL,
			c.code, c.discountType, value, minOrder, maxOrder, now.Add(c.validFor), c.usageLimit,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
		slog.Info("upserted coupon", slog.String("code", c.code))
	}

	return nil
}

const upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, user_id, role, active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		key_hash = EXCLUDED.key_hash, user_id = EXCLUDED.user_id,
		role = EXCLUDED.role, active = TRUE`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, id, key, pepper, userID, role string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, id, keyHash, userID, role); err != nil {
		return errors.Wrapf(err, "upsert api key %s", id)
	}

	slog.Info("upserted API key", slog.String("id", id), slog.String("role", role))
	return nil
}
