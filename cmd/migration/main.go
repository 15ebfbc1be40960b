package main

import (
	"bufio"
	"database/sql"
	"flag"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/contactsapp/contacts-api/internal/config"
)

// Usage example on the command line:
// > DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 DBNAME=contacts go run main.go -file=../../scripts/database.sql
func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "migration"})

	cfg := config.Load()
	sqlDB, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logger.Fatal("could not open database", "err", err)
	}
	db := sqlx.NewDb(sqlDB, "mysql")
	defer db.Close()

	filePtr := flag.String("file", "database.sql", "the sql file to execute")
	flag.Parse()

	readFile, err := os.Open(*filePtr)
	if err != nil {
		logger.Fatal("could not open sql file", "file", *filePtr, "err", err)
	}
	defer readFile.Close()

	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			statement := builder.String()
			db.MustExec(statement)
			logger.Info("executed", "statement", strings.TrimSpace(statement))
			builder = strings.Builder{}
		}
	}
}
