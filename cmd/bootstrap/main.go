package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mcontrold/config"
	"mcontrold/db"
	"mcontrold/model"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	configPathEnvVar  = "MCONTROL_CONFIG"
	defaultMaxBackups = 5
	backupFileExt     = ".bak"
)

func main() {
	var configPath string
	var sqlitePath string
	var seed bool
	var doBackup bool
	var maxBackups int

	rootCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap the maintenance-control schema and optionally seed it",
		Run: func(cmd *cobra.Command, args []string) {
			if envPath := viper.GetString(configPathEnvVar); envPath != "" && !cmd.Flags().Changed("config") {
				configPath = envPath
			}

			conn := connectionFor(configPath, sqlitePath)

			// Backups only make sense for a file-backed database.
			if doBackup && strings.HasPrefix(strings.ToLower(conn.Type), "sqlite") {
				if info, err := os.Stat(conn.Host); err == nil {
					log.Printf("existing database file size: %d bytes", info.Size())
					backupPath := fmt.Sprintf("%s.%s%s", conn.Host, time.Now().Format("20060102-150405"), backupFileExt)
					if err := copyFile(conn.Host, backupPath); err != nil {
						log.Fatalf("failed to create DB backup: %v", err)
					}
					log.Printf("existing database backed up to %s", backupPath)
					pruneOldBackups(conn.Host, maxBackups)
				}
			}

			gormDB, err := db.Open(conn)
			if err != nil {
				log.Fatalf("failed to open DB: %v", err)
			}
			if err := db.Bootstrap(gormDB, seed); err != nil {
				log.Fatalf("bootstrap failed: %v", err)
			}

			zl, err := zap.NewProduction()
			if err != nil {
				log.Fatalf("failed to create logger: %v", err)
			}
			defer func() {
				_ = zl.Sync()
			}()
			store := db.NewSQLStore(gormDB)
			if err := store.LogAudit(zl.Sugar(), model.AuditEntry{
				Action:  "BOOTSTRAP",
				Message: fmt.Sprintf("schema created, seed=%t", seed),
			}); err != nil {
				log.Printf("warning: failed to record bootstrap audit entry: %v", err)
			}
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Path to the configuration document")
	rootCmd.Flags().StringVar(&sqlitePath, "db", "", "Bootstrap a local SQLite file instead of the configured database")
	rootCmd.Flags().BoolVar(&seed, "seed", true, "Whether to load seed data into the database")
	rootCmd.Flags().BoolVar(&doBackup, "backup", true, "Whether to create a backup of the database if it exists")
	rootCmd.Flags().IntVar(&maxBackups, "max-backups", defaultMaxBackups, "Maximum number of backups to retain")

	viper.AutomaticEnv() // binds environment variables to viper config

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

// connectionFor resolves the connection parameters: an explicit sqlite path
// wins, otherwise the configuration document decides.
func connectionFor(configPath, sqlitePath string) config.Connection {
	if sqlitePath != "" {
		return config.Connection{Type: "sqlite", Host: sqlitePath}
	}
	doc, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := doc.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return doc.Connection
}

func copyFile(src, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func(source *os.File) {
		err := source.Close()
		if err != nil {
			log.Printf("warning: failed to close file %s: %v", src, err)
		}
	}(source)

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func(destination *os.File) {
		err := destination.Close()
		if err != nil {
			log.Printf("warning: failed to close file %s: %v", dst, err)
		}
	}(destination)

	_, err = destination.ReadFrom(source)
	return err
}

func pruneOldBackups(dbPath string, max int) {
	dir := filepath.Dir(dbPath)
	base := filepath.Base(dbPath)
	prefix := base + "."
	files, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("warning: failed to read backup directory: %v", err)
		return
	}

	var backups []string
	for _, f := range files {
		if strings.HasPrefix(f.Name(), prefix) && strings.HasSuffix(f.Name(), backupFileExt) {
			backups = append(backups, filepath.Join(dir, f.Name()))
		}
	}

	if len(backups) <= max {
		return
	}

	sort.Strings(backups)
	toRemove := backups[:len(backups)-max]
	for _, file := range toRemove {
		err := os.Remove(file)
		if err != nil {
			log.Printf("warning: failed to remove old backup %s: %v", file, err)
		} else {
			log.Printf("removed old backup: %s", file)
		}
	}
}
