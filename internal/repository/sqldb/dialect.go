package sqldb

import "fmt"

// dialect holds the statements that differ between SQL engines
type dialect struct {
	driver string
	schema []string
	upsert string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			session_id    TEXT PRIMARY KEY,
			messages      TEXT NOT NULL,
			last_message  TEXT NOT NULL DEFAULT '',
			message_count INTEGER NOT NULL DEFAULT 0,
			user_metadata TEXT,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS api_logs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id       TEXT,
			endpoint         TEXT NOT NULL,
			method           TEXT NOT NULL,
			status_code      INTEGER NOT NULL,
			response_time_ms INTEGER NOT NULL,
			ip_address       TEXT NOT NULL,
			user_agent       TEXT,
			error_message    TEXT,
			timestamp        DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_logs_session_id ON api_logs (session_id)`,
	},
	upsert: `
		INSERT INTO conversations (session_id, messages, last_message, message_count, user_metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			messages = excluded.messages,
			last_message = excluded.last_message,
			message_count = excluded.message_count,
			user_metadata = excluded.user_metadata,
			updated_at = excluded.updated_at
	`,
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			session_id    CHAR(36) PRIMARY KEY,
			messages      LONGTEXT NOT NULL,
			last_message  TEXT NOT NULL,
			message_count INT NOT NULL DEFAULT 0,
			user_metadata TEXT,
			created_at    DATETIME(3) NOT NULL,
			updated_at    DATETIME(3) NOT NULL
		) DEFAULT CHARSET = utf8mb4`,
		`CREATE TABLE IF NOT EXISTS api_logs (
			id               BIGINT AUTO_INCREMENT PRIMARY KEY,
			session_id       CHAR(36),
			endpoint         VARCHAR(255) NOT NULL,
			method           VARCHAR(16) NOT NULL,
			status_code      INT NOT NULL,
			response_time_ms BIGINT NOT NULL,
			ip_address       VARCHAR(128) NOT NULL,
			user_agent       TEXT,
			error_message    TEXT,
			timestamp        DATETIME(3) NOT NULL,
			INDEX idx_api_logs_session_id (session_id)
		) DEFAULT CHARSET = utf8mb4`,
	},
	upsert: `
		INSERT INTO conversations (session_id, messages, last_message, message_count, user_metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			messages = VALUES(messages),
			last_message = VALUES(last_message),
			message_count = VALUES(message_count),
			user_metadata = VALUES(user_metadata),
			updated_at = VALUES(updated_at)
	`,
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite":
		return sqliteDialect, nil
	case "mysql":
		return mysqlDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported sql driver: %s", driver)
	}
}
