package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the task and workflow tables. Applied by the seed
// tool and by tests; production migrations run the same statements.
const Schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          UUID PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT,
	date        TEXT NOT NULL,
	time        TEXT,
	status      TEXT NOT NULL,
	priority    TEXT NOT NULL,
	type        TEXT NOT NULL,
	subject_id  TEXT NOT NULL DEFAULT '',
	workflow_id UUID,
	step_number INT,
	instance_id UUID,
	client_id   TEXT,
	client_name TEXT,
	assigned_to TEXT NOT NULL DEFAULT '',
	subtasks    JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	created_by  TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);
CREATE INDEX IF NOT EXISTS idx_tasks_instance ON tasks (instance_id);

CREATE TABLE IF NOT EXISTS workflows (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	category    TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	usage_count INT NOT NULL DEFAULT 0,
	steps       JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS workflow_instances (
	id               UUID PRIMARY KEY,
	workflow_id      UUID NOT NULL,
	subject_id       TEXT NOT NULL DEFAULT '',
	client_id        TEXT,
	client_name      TEXT,
	status           TEXT NOT NULL,
	current_step     INT NOT NULL DEFAULT 0,
	task_ids_by_step JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	created_by       TEXT
);
CREATE INDEX IF NOT EXISTS idx_instances_status ON workflow_instances (status);

CREATE TABLE IF NOT EXISTS subjects (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	related_to_policy   BOOLEAN NOT NULL DEFAULT FALSE,
	is_future_lead      BOOLEAN NOT NULL DEFAULT FALSE,
	default_workflow_id UUID,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
`

// ApplySchema creates the tables if they do not exist.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
