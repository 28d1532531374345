package main

import (
	"fmt"
	"log"
	"strings"

	"mcontrold/config"
	"mcontrold/db"
	"mcontrold/importer"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configPathEnvVar = "MCONTROL_CONFIG"

func main() {
	var configPath string
	var csvPath string
	var table string
	var headers string
	var noHeaderRow bool

	rootCmd := &cobra.Command{
		Use:   "importcsv",
		Short: "Import a results CSV file into the configured database",
		Run: func(cmd *cobra.Command, args []string) {
			if csvPath == "" {
				log.Fatalf("ERROR: --csv is required")
			}
			if table == "" {
				log.Fatalf("ERROR: --table is required")
			}
			if envPath := viper.GetString(configPathEnvVar); envPath != "" && !cmd.Flags().Changed("config") {
				configPath = envPath
			}

			doc, err := config.Load(configPath)
			if err != nil {
				log.Fatalf("failed to load configuration: %v", err)
			}
			if err := doc.Validate(); err != nil {
				log.Fatalf("invalid configuration: %v", err)
			}

			gormDB, err := db.Open(doc.Connection)
			if err != nil {
				log.Fatalf("failed to open DB: %v", err)
			}

			opts := importer.Options{
				Table:        table,
				HasHeaderRow: !noHeaderRow,
			}
			if headers != "" {
				for _, h := range strings.Split(headers, ",") {
					opts.Headers = append(opts.Headers, strings.TrimSpace(h))
				}
			}

			count, err := importer.ImportFile(gormDB, csvPath, opts)
			if err != nil {
				log.Fatalf("import failed: %v", err)
			}
			fmt.Printf("Imported %d rows into %s\n", count, table)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Path to the configuration document")
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "Path to the CSV file to import")
	rootCmd.Flags().StringVar(&table, "table", "", "Target table name")
	rootCmd.Flags().StringVar(&headers, "headers", "", "Comma-separated column names when the CSV has no header row")
	rootCmd.Flags().BoolVar(&noHeaderRow, "no-header-row", false, "Treat the first CSV row as data, not headers")

	viper.AutomaticEnv() // binds environment variables to viper config

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}
