package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Database holds the database connection pool
type Database struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewDatabase creates a new database connection with retry logic
func NewDatabase() (*Database, error) {
	return NewDatabaseWithRetry(5, time.Second)
}

// NewDatabaseWithRetry creates a new database connection with configurable retry logic
func NewDatabaseWithRetry(maxRetries int, initialDelay time.Duration) (*Database, error) {
	// Prefer DATABASE_URL if provided (single DSN)
	var poolConfig *pgxpool.Config
	var err error
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		poolConfig, err = pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
	} else {
		config := getConfigFromEnv()

		var connStr string
		if config.Password == "" {
			connStr = fmt.Sprintf(
				"host=%s port=%d user=%s dbname=%s sslmode=%s",
				config.Host, config.Port, config.User, config.DBName, config.SSLMode,
			)
		} else {
			connStr = fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
			)
		}

		poolConfig, err = pgxpool.ParseConfig(connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database config: %w", err)
		}
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("[POS-DB] Connection attempt %d/%d to database %s@%s:%d",
			attempt, maxRetries, poolConfig.ConnConfig.User, poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port)

		pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			lastErr = fmt.Errorf("failed to create connection pool: %w", err)
			log.Printf("[POS-DB] Failed to create pool (attempt %d): %v", attempt, err)
			if attempt < maxRetries {
				time.Sleep(initialDelay * time.Duration(1<<(attempt-1)))
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = pool.Ping(ctx)
		cancel()

		if err == nil {
			log.Printf("[POS-DB] Successfully connected to database on attempt %d", attempt)
			break
		}

		lastErr = fmt.Errorf("failed to ping database: %w", err)
		log.Printf("[POS-DB] Connection failed (attempt %d): %v", attempt, err)
		pool.Close()
		pool = nil

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<(attempt-1))
			log.Printf("[POS-DB] Retrying in %v...", delay)
			time.Sleep(delay)
		}
	}

	if pool == nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
	}

	db := &Database{Pool: pool}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.InitSchema(ctx); err != nil {
		log.Printf("[POS-DB] Warning: Failed to initialize database schema: %v", err)
		// Don't fail here - schema might be initialized later
	}

	log.Println("[POS-DB] Database connection established successfully")
	return db, nil
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("Database connection pool closed")
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// InitSchema creates the required tables when they do not exist yet and
// seeds the built-in roles and the wildcard permission.
func (db *Database) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS staffs (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			full_name VARCHAR(100) NOT NULL,
			email VARCHAR(100) NOT NULL UNIQUE,
			phone VARCHAR(20) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(50) NOT NULL,
			prefer_name VARCHAR(50),
			phone_number VARCHAR(20) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS roles (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(64) NOT NULL UNIQUE,
			name VARCHAR(128) NOT NULL,
			description VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS permissions (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(128) NOT NULL UNIQUE,
			name VARCHAR(128) NOT NULL,
			description VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS role_permissions (
			role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			permission_id BIGINT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
			PRIMARY KEY (role_id, permission_id)
		)`,
		`CREATE TABLE IF NOT EXISTS staff_roles (
			staff_id BIGINT NOT NULL REFERENCES staffs(id) ON DELETE CASCADE,
			role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			PRIMARY KEY (staff_id, role_id)
		)`,
		`CREATE TABLE IF NOT EXISTS product_types (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			price NUMERIC(10,2) NOT NULL DEFAULT 0.00,
			type_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS modifiers (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			type VARCHAR(50) NOT NULL,
			price NUMERIC(10,2) NOT NULL DEFAULT 0.00,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS modifier_product (
			product_id BIGINT NOT NULL,
			modifier_id BIGINT NOT NULL,
			PRIMARY KEY (product_id, modifier_id)
		)`,
		`CREATE TABLE IF NOT EXISTS product_allergens (
			product_id BIGINT NOT NULL,
			allergen VARCHAR(50) NOT NULL,
			PRIMARY KEY (product_id, allergen)
		)`,
		`CREATE TABLE IF NOT EXISTS user_allergens (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			allergen VARCHAR(50) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS units (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(50) NOT NULL UNIQUE,
			abbreviation VARCHAR(20) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS allergens (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(50) NOT NULL UNIQUE,
			tag VARCHAR(100)
		)`,
		`CREATE TABLE IF NOT EXISTS category_units (
			category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			unit_id BIGINT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
			PRIMARY KEY (category_id, unit_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ingredients (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			category_id BIGINT NOT NULL REFERENCES categories(id),
			unit_id BIGINT NOT NULL REFERENCES units(id),
			brand VARCHAR(100),
			threshold NUMERIC(10,2)
		)`,
		`CREATE TABLE IF NOT EXISTS ingredient_allergens (
			ingredient_id BIGINT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
			allergen_id BIGINT NOT NULL REFERENCES allergens(id) ON DELETE CASCADE,
			PRIMARY KEY (ingredient_id, allergen_id)
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			id BIGSERIAL PRIMARY KEY,
			ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
			unit_id BIGINT NOT NULL REFERENCES units(id),
			standard_qty NUMERIC(10,2),
			actual_qty NUMERIC(10,2),
			location VARCHAR(100) NOT NULL,
			update_time TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			restock_needed BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS semi_finished_products (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			prep_time_hours NUMERIC(6,2) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS semi_finished_product_ingredients (
			id BIGSERIAL PRIMARY KEY,
			semi_finished_product_id BIGINT NOT NULL REFERENCES semi_finished_products(id) ON DELETE CASCADE,
			ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
			unit_id BIGINT NOT NULL REFERENCES units(id),
			quantity NUMERIC(12,3) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS purchase_orders (
			id BIGSERIAL PRIMARY KEY,
			po_code VARCHAR(32) NOT NULL UNIQUE,
			order_date DATE NOT NULL,
			store_id VARCHAR(50)
		)`,
		`CREATE TABLE IF NOT EXISTS purchase_order_items (
			id BIGSERIAL PRIMARY KEY,
			purchase_order_id BIGINT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
			ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
			unit_id BIGINT NOT NULL REFERENCES units(id),
			quantity NUMERIC(12,3) NOT NULL,
			vendor VARCHAR(100)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			order_number VARCHAR(32) NOT NULL UNIQUE,
			user_id BIGINT,
			pickup_number VARCHAR(16),
			payment_method VARCHAR(16) NOT NULL,
			dine_option VARCHAR(16) NOT NULL,
			total_price NUMERIC(10,2) NOT NULL DEFAULT 0.00,
			order_status VARCHAR(16) NOT NULL DEFAULT 'IP',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id BIGINT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 1,
			modifiers JSONB,
			price NUMERIC(10,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(order_status)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_allergens_user ON user_allergens(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	if err := db.seedRBAC(ctx); err != nil {
		return fmt.Errorf("failed to seed RBAC reference data: %w", err)
	}
	if err := db.seedBootstrapOwner(ctx); err != nil {
		return fmt.Errorf("failed to seed bootstrap owner: %w", err)
	}

	log.Println("[POS-DB] Database schema verified successfully")
	return nil
}

// seedRBAC inserts the built-in roles and permissions: the owner role holds
// the wildcard, manager and staff hold inventory.write. Safe to run
// repeatedly.
func (db *Database) seedRBAC(ctx context.Context) error {
	roles := [][2]string{
		{"owner", "Owner"},
		{"manager", "Manager"},
		{"staff", "Staff"},
		{"trainee", "Trainee"},
	}
	for _, r := range roles {
		if _, err := db.Pool.Exec(ctx,
			`INSERT INTO roles (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
			r[0], r[1]); err != nil {
			return err
		}
	}

	permissions := [][3]string{
		{"*", "All permissions", "Wildcard permission granting full access"},
		{"inventory.write", "Inventory writes", "Create and modify inventory, ingredients, and receiving records"},
	}
	for _, p := range permissions {
		if _, err := db.Pool.Exec(ctx,
			`INSERT INTO permissions (code, name, description) VALUES ($1, $2, $3)
			 ON CONFLICT (code) DO NOTHING`,
			p[0], p[1], p[2]); err != nil {
			return err
		}
	}

	grants := [][2]string{
		{"owner", "*"},
		{"manager", "inventory.write"},
		{"staff", "inventory.write"},
	}
	for _, g := range grants {
		if _, err := db.Pool.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT r.id, p.id FROM roles r, permissions p
			WHERE r.code = $1 AND p.code = $2
			ON CONFLICT DO NOTHING
		`, g[0], g[1]); err != nil {
			return err
		}
	}
	return nil
}

// bootstrapOwner is the first-run owner account assembled from env
type bootstrapOwner struct {
	Username string
	Password string
	FullName string
	Email    string
	Phone    string
}

// bootstrapOwnerConfig reads the first-run owner account from
// BOOTSTRAP_OWNER_* environment variables. Username and password are
// required; the rest fall back to placeholder values the owner can change
// later. Returns false when bootstrapping is not configured.
func bootstrapOwnerConfig() (bootstrapOwner, bool) {
	owner := bootstrapOwner{
		Username: os.Getenv("BOOTSTRAP_OWNER_USERNAME"),
		Password: os.Getenv("BOOTSTRAP_OWNER_PASSWORD"),
	}
	if owner.Username == "" || owner.Password == "" {
		return bootstrapOwner{}, false
	}
	owner.FullName = getEnv("BOOTSTRAP_OWNER_FULL_NAME", owner.Username)
	owner.Email = getEnv("BOOTSTRAP_OWNER_EMAIL", owner.Username+"@local")
	owner.Phone = getEnv("BOOTSTRAP_OWNER_PHONE", "0000000000")
	return owner, true
}

// seedBootstrapOwner creates the first staff account with the owner role when
// BOOTSTRAP_OWNER_USERNAME and BOOTSTRAP_OWNER_PASSWORD are set and no staff
// exists yet. Staff registration requires an owner or manager token, so a
// fresh deployment needs this to mint its first account.
func (db *Database) seedBootstrapOwner(ctx context.Context) error {
	owner, ok := bootstrapOwnerConfig()
	if !ok {
		return nil
	}

	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM staffs`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(owner.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var staffID int64
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO staffs (username, password_hash, full_name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, owner.Username, string(hash), owner.FullName, owner.Email, owner.Phone).Scan(&staffID)
	if err != nil {
		return err
	}

	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO staff_roles (staff_id, role_id)
		SELECT $1, id FROM roles WHERE code = 'owner'
		ON CONFLICT DO NOTHING
	`, staffID); err != nil {
		return err
	}

	log.Printf("[POS-DB] Bootstrap owner account %q created", owner.Username)
	return nil
}

// getConfigFromEnv reads database configuration from environment variables
func getConfigFromEnv() Config {
	config := Config{
		Host:     getEnv("DB_HOST", "localhost"),
		User:     getEnv("DB_USER", "dessertpos"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "dessertpos_db"),
		SSLMode:  getEnv("DB_SSLMODE", "prefer"),
	}

	portStr := getEnv("DB_PORT", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Printf("Invalid DB_PORT value: %s, using default 5432", portStr)
		port = 5432
	}
	config.Port = port

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
