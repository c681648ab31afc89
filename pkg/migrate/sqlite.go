package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the Postgres migrations for the SQLite dev database.
// Enum columns become TEXT, uuids are stored as TEXT, and there is no
// booking number sequence; ids and booking numbers are assigned client-side.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'customer',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email ON users (email)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		seat_cap INTEGER NOT NULL,
		billing_email TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS corporate_packages (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations (id),
		total_credits INTEGER NOT NULL,
		used_credits INTEGER NOT NULL DEFAULT 0,
		permanent_discount_percent INTEGER NOT NULL DEFAULT 0,
		expires_at DATETIME,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT ck_corporate_packages_credits CHECK (used_credits >= 0 AND used_credits <= total_credits)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_corporate_packages_org ON corporate_packages (organization_id)`,
	`CREATE TABLE IF NOT EXISTS org_seats (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations (id),
		user_id TEXT NOT NULL REFERENCES users (id),
		is_active INTEGER NOT NULL DEFAULT 1,
		assigned_by TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_org_seats_org_user ON org_seats (organization_id, user_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		duration_min INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS add_ons (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		booking_number INTEGER NOT NULL,
		customer_id TEXT NOT NULL REFERENCES users (id),
		product_id TEXT NOT NULL REFERENCES products (id),
		organization_id TEXT REFERENCES organizations (id),
		package_id TEXT REFERENCES corporate_packages (id),
		status TEXT NOT NULL DEFAULT 'pending',
		scheduled_at DATETIME NOT NULL,
		completed_at DATETIME,
		is_corporate INTEGER NOT NULL DEFAULT 0,
		quote_requested INTEGER NOT NULL DEFAULT 0,
		invoice_number TEXT,
		invoice_sent_at DATETIME,
		notes TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_booking_number ON bookings (booking_number)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_invoice_number ON bookings (invoice_number) WHERE invoice_number IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS ix_bookings_customer ON bookings (customer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS ix_bookings_org ON bookings (organization_id) WHERE organization_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS ix_bookings_status ON bookings (status)`,
	`CREATE TABLE IF NOT EXISTS booking_add_ons (
		booking_id TEXT NOT NULL REFERENCES bookings (id) ON DELETE CASCADE,
		add_on_id TEXT NOT NULL REFERENCES add_ons (id),
		PRIMARY KEY (booking_id, add_on_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL REFERENCES bookings (id) ON DELETE CASCADE,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		status TEXT NOT NULL DEFAULT 'pending',
		deposit_only INTEGER NOT NULL DEFAULT 0,
		external_ref TEXT NOT NULL,
		processed_by TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS ix_payments_booking ON payments (booking_id)`,
	`CREATE TABLE IF NOT EXISTS timeline_entries (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL REFERENCES bookings (id) ON DELETE CASCADE,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS ix_timeline_entries_booking ON timeline_entries (booking_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS ix_outbox_events_unpublished ON outbox_events (created_at) WHERE published_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_event_aggregate ON outbox_events (event_type, aggregate_type, aggregate_id)`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL REFERENCES users (id),
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		link TEXT,
		read_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS ix_notifications_recipient ON notifications (recipient_id, created_at DESC)`,
}

// SQLiteSchema returns the DDL statements for the SQLite dev database.
func SQLiteSchema() []string {
	return sqliteSchema
}

// ApplySQLite creates the schema on a SQLite database. Goose migrations are
// Postgres-only, so the SQLite dev path applies this schema instead. All
// statements are idempotent and safe to rerun.
func ApplySQLite(ctx context.Context, gdb *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := gdb.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("applying sqlite schema: %w", err)
		}
	}
	return nil
}
