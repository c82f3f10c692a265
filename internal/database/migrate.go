package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables in creation order.  Addresses are BINARY(32);
// ticket records keep the 49-byte fixed-width layout and duplicate the
// owner in an indexed column for owner lookups.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'USER',
		address       BINARY(32)   NOT NULL,
		is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_address (address)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS event_instances (
		id                    BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		creator               BINARY(32)      NOT NULL,
		initialized           BOOLEAN         NOT NULL DEFAULT FALSE,
		price                 BIGINT UNSIGNED NOT NULL DEFAULT 0,
		supply                BIGINT UNSIGNED NOT NULL DEFAULT 0,
		sold                  BIGINT UNSIGNED NOT NULL DEFAULT 0,
		organizer             BINARY(32)      NOT NULL,
		cancellation_deadline BIGINT UNSIGNED NOT NULL DEFAULT 0,
		penalty_percentage    BIGINT UNSIGNED NOT NULL DEFAULT 0,
		royalty_percentage    BIGINT UNSIGNED NOT NULL DEFAULT 0,
		balance               BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at            DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS tokens (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		instance_id BIGINT UNSIGNED NOT NULL,
		holder      BINARY(32)      NOT NULL,
		KEY idx_tokens_instance (instance_id),
		CONSTRAINT fk_tokens_instance FOREIGN KEY (instance_id) REFERENCES event_instances (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS token_transfers (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		token_id   BIGINT UNSIGNED NOT NULL,
		from_addr  BINARY(32)      NOT NULL,
		to_addr    BINARY(32)      NOT NULL,
		forced     BOOLEAN         NOT NULL DEFAULT FALSE,
		created_at DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_token_transfers_token (token_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS tickets (
		instance_id BIGINT UNSIGNED NOT NULL,
		ticket_id   BIGINT UNSIGNED NOT NULL,
		record      BINARY(49)      NOT NULL,
		owner       BINARY(32)      NOT NULL,
		PRIMARY KEY (instance_id, ticket_id),
		KEY idx_tickets_owner (instance_id, owner),
		CONSTRAINT fk_tickets_instance FOREIGN KEY (instance_id) REFERENCES event_instances (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS wallets (
		address BINARY(32)      NOT NULL PRIMARY KEY,
		balance BIGINT UNSIGNED NOT NULL DEFAULT 0
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS transfers (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		instance_id BIGINT UNSIGNED NULL,
		from_addr   BINARY(32)      NOT NULL,
		to_addr     BINARY(32)      NOT NULL,
		amount      BIGINT UNSIGNED NOT NULL,
		kind        VARCHAR(32)     NOT NULL,
		created_at  DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_transfers_from (from_addr),
		KEY idx_transfers_to (to_addr)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS event_registry (
		idx         BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		instance_id BIGINT UNSIGNED NOT NULL,
		name        VARCHAR(128)    NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
