package migration

import "embed"

const migrationDir = "migrations"

//go:embed migrations/*.up.sql
var migrationFiles embed.FS
