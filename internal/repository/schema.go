package repository

import (
	"context"
	"database/sql"
)

// schema holds the DDL for the two logical relations of the service:
// seats (unique per show + label) and booking transactions (keyed by
// token).  Statements are idempotent so the server can apply them on
// every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS shows (
        id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        name       VARCHAR(255) NOT NULL,
        seat_count INT NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS seats (
        id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        show_id         BIGINT UNSIGNED NOT NULL,
        row_label       VARCHAR(4) NOT NULL,
        seat_number     INT UNSIGNED NOT NULL,
        status          VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE',
        hold_token      CHAR(64) NULL,
        hold_expires_at DATETIME NULL,
        booked_by       VARCHAR(255) NULL,
        booked_at       DATETIME NULL,
        UNIQUE KEY uq_seats_show_label (show_id, row_label, seat_number),
        KEY idx_seats_hold_token (hold_token),
        CONSTRAINT fk_seats_show FOREIGN KEY (show_id) REFERENCES shows (id)
    )`,
	`CREATE TABLE IF NOT EXISTS bookings (
        token           CHAR(64) PRIMARY KEY,
        show_id         BIGINT UNSIGNED NOT NULL,
        row_label       VARCHAR(4) NOT NULL,
        seat_number     INT UNSIGNED NOT NULL,
        guest_name      VARCHAR(255) NOT NULL,
        status          VARCHAR(16) NOT NULL DEFAULT 'HELD',
        hold_expires_at DATETIME NOT NULL,
        confirmed_at    DATETIME NULL,
        created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        KEY idx_bookings_sweep (status, hold_expires_at)
    )`,
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
