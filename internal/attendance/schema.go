package attendance

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	user_id       VARCHAR(64) UNIQUE NOT NULL,
	name          VARCHAR(64) NOT NULL,
	role          VARCHAR(20) NOT NULL,
	email         VARCHAR(120) UNIQUE NOT NULL,
	year          VARCHAR(20) NOT NULL DEFAULT '',
	branch        VARCHAR(64) NOT NULL DEFAULT '',
	department    VARCHAR(64) NOT NULL DEFAULT '',
	password_hash VARCHAR(256) NOT NULL,
	reset_token   VARCHAR(128) NOT NULL DEFAULT '',
	reset_expiry  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance (
	id             BIGSERIAL PRIMARY KEY,
	user_id        VARCHAR(64) NOT NULL REFERENCES users(user_id),
	check_in_time  TIMESTAMPTZ NOT NULL,
	check_out_time TIMESTAMPTZ,
	block_name     VARCHAR(64) NOT NULL DEFAULT '',
	period         VARCHAR(20) NOT NULL DEFAULT '',
	wifi_name      VARCHAR(64) NOT NULL DEFAULT '',
	duration       INTEGER,
	status         VARCHAR(20) NOT NULL DEFAULT 'absent'
);
CREATE INDEX IF NOT EXISTS attendance_user_checkin ON attendance (user_id, check_in_time DESC);

CREATE TABLE IF NOT EXISTS timetable (
	id         BIGSERIAL PRIMARY KEY,
	user_id    VARCHAR(64) NOT NULL REFERENCES users(user_id),
	created_by VARCHAR(64) NOT NULL DEFAULT '',
	day        VARCHAR(20) NOT NULL,
	period     VARCHAR(20) NOT NULL,
	start_time VARCHAR(20) NOT NULL,
	end_time   VARCHAR(20) NOT NULL,
	block_name VARCHAR(64) NOT NULL DEFAULT '',
	wifi_name  VARCHAR(64) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS notifications (
	id           BIGSERIAL PRIMARY KEY,
	recipient_id VARCHAR(64) NOT NULL REFERENCES users(user_id),
	student_id   VARCHAR(64) NOT NULL REFERENCES users(user_id),
	message      TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	is_read      BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS correction_requests (
	id            BIGSERIAL PRIMARY KEY,
	user_id       VARCHAR(64) NOT NULL REFERENCES users(user_id),
	attendance_id BIGINT NOT NULL REFERENCES attendance(id),
	reason        VARCHAR(256) NOT NULL,
	status        VARCHAR(20) NOT NULL DEFAULT 'pending',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_activity (
	id            BIGSERIAL PRIMARY KEY,
	user_id       VARCHAR(64) NOT NULL REFERENCES users(user_id),
	activity_type VARCHAR(50) NOT NULL,
	details       VARCHAR(255) NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
