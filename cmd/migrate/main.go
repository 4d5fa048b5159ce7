package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BaamPark/WebLabelMV/internal/database"
	"github.com/BaamPark/WebLabelMV/internal/logger"
	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// dbSettings is the subset of the server configuration migrate needs; it
// does not require JWT_SECRET.
type dbSettings struct {
	Type           string `env:"DB_TYPE"         envDefault:"postgres"`
	Host           string `env:"DB_HOST"         envDefault:"localhost"`
	Port           int    `env:"DB_PORT"         envDefault:"5432"`
	User           string `env:"DB_USER"         envDefault:"labelmv"`
	Password       string `env:"DB_PASSWORD"     envDefault:"labelmv_dev"`
	Name           string `env:"DB_NAME"         envDefault:"labelmv"`
	SQLitePath     string `env:"DB_PATH"         envDefault:"./labelmv.db"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
}

func main() {
	var settings dbSettings
	if err := env.Parse(&settings); err != nil {
		fmt.Fprintln(os.Stderr, "invalid environment:", err)
		os.Exit(2)
	}

	var (
		dbType         = flag.String("db", settings.Type, "Database type (postgres or sqlite)")
		host           = flag.String("host", settings.Host, "Database host")
		port           = flag.Int("port", settings.Port, "Database port")
		user           = flag.String("user", settings.User, "Database user")
		password       = flag.String("password", settings.Password, "Database password")
		dbName         = flag.String("name", settings.Name, "Database name")
		sqlitePath     = flag.String("sqlite", settings.SQLitePath, "SQLite database path")
		migrationsPath = flag.String("migrations", settings.MigrationsPath, "Path to migrations directory")
		status         = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	log, err := logger.New(settings.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	dbConfig := database.Config{
		Type:       *dbType,
		Host:       *host,
		Port:       *port,
		User:       *user,
		Password:   *password,
		Name:       *dbName,
		SQLitePath: *sqlitePath,
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Conn(), dbConfig.Type, log)

	if !*status {
		log.Info("running migrations", zap.String("path", *migrationsPath))
		if err := migrator.Run(*migrationsPath); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		return
	}

	if dbConfig.Type != "postgres" {
		fmt.Println("sqlite schema is created on startup; no migrations to report")
		return
	}

	statuses, err := migrator.Status(*migrationsPath)
	if err != nil {
		log.Fatal("failed to read migration status", zap.Error(err))
	}

	fmt.Println("Migration Status:")
	fmt.Println("=================")
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Printf("%s - %s [%s]\n", s.Version, s.Name, state)
	}
}
