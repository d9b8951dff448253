package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema of the game tables and of the question bank tables
// used when the bank lives in the same database.
var Migrations = migrate.NewMigrations()
