package database

import "github.com/aerocl/aerobot/internal/config"

// Config holds database connection settings.
//
// The struct body lives in the config package so that config does not
// import database (database already depends on logger, which depends on
// config); the alias keeps database.Config as the name callers use.
type Config = config.DatabaseConfig
