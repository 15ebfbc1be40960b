package main

import (
	"database/sql"
	"os"

	"github.com/charmbracelet/log"
	_ "github.com/go-sql-driver/mysql"

	"github.com/contactsapp/contacts-api/internal/config"
	"github.com/contactsapp/contacts-api/internal/service"
	"github.com/contactsapp/contacts-api/internal/store"
)

// Usage example on the command line:
// > APP_PORT=8080 DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 DBNAME=contacts go run main.go
func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "contacts-api",
	})

	cfg := config.Load()
	sqlDB, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logger.Fatal("could not open database", "err", err)
	}
	defer sqlDB.Close()

	contacts, err := store.NewMySQL(sqlDB)
	if err != nil {
		logger.Fatal("could not initialize contact store", "err", err)
	}

	router := service.New(cfg, contacts, logger).SetupHttpRouter()
	logger.Info("starting", "port", cfg.AppPort, "version", cfg.AppVersion)
	if err := router.Run(":" + cfg.AppPort); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
