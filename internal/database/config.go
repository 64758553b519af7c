package database

import (
	"fmt"

	"finanzas/internal/config"
)

// Driver names accepted in DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database configuration
type Config struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	SQLitePath     string
	MigrationsPath string
}

// NewConfig builds the database configuration from the application configuration.
func NewConfig(appConfig *config.Config) *Config {
	return &Config{
		Driver:         appConfig.DBDriver,
		Host:           appConfig.DBHost,
		Port:           appConfig.DBPort,
		User:           appConfig.DBUser,
		Password:       appConfig.DBPassword,
		DBName:         appConfig.DBName,
		SSLMode:        appConfig.DBSSLMode,
		SQLitePath:     appConfig.SQLitePath,
		MigrationsPath: appConfig.MigrationsPath,
	}
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MigrateURL returns the postgres URL form expected by golang-migrate.
func (c *Config) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
