// Package db embeds the store migrations applied at startup.
package db

import "embed"

//go:embed migrations/mongodb/*.json migrations/postgres/*.sql
var Migrations embed.FS

const (
	MongoMigrationsDir    = "migrations/mongodb"
	PostgresMigrationsDir = "migrations/postgres"
)
