package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema steps, named after their files.
var Migrations = migrate.NewMigrations()
