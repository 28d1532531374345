package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"mcontrold/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database described by conn. The engine is picked from
// conn.Type; for sqlite the host field is the database file path.
func Open(conn config.Connection) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second,   // Slow SQL threshold
			LogLevel:                  logger.Silent, // Log level
			IgnoreRecordNotFoundError: true,          // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,          // Don't include params in the SQL log
			Colorful:                  false,         // Disable color
		},
	)

	dial, err := dialector(conn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	return db, nil
}

func dialector(conn config.Connection) (gorm.Dialector, error) {
	switch strings.ToLower(conn.Type) {
	case "mysql", "mariadb":
		return mysql.Open(MySQLDSN(conn)), nil
	case "postgres", "postgresql":
		return postgres.Open(postgresDSN(conn)), nil
	case "sqlite", "sqlite3":
		if conn.Host == "" {
			return nil, fmt.Errorf("sqlite database path not specified in configuration")
		}
		return sqlite.Open(conn.Host), nil
	}
	return nil, fmt.Errorf("unsupported database type: %q", conn.Type)
}

// MySQLDSN renders conn as a go-sql-driver DSN. parseTime makes DATETIME
// columns scan as time.Time.
func MySQLDSN(conn config.Connection) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		conn.User, conn.Password, conn.Host, conn.Port, conn.Database)
}

func postgresDSN(conn config.Connection) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		conn.Host, conn.Port, conn.User, conn.Password, conn.Database)
}
