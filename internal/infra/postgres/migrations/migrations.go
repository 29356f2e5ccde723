package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the Postgres schema; each file registers one step.
var Migrations = migrate.NewMigrations()
