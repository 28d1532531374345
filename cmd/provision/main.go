package main

import (
	"context"
	"fmt"
	"log"

	"mcontrold/provision"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	adminUserEnvVar     = "MYSQL_ADMIN_USER"
	adminPasswordEnvVar = "MYSQL_ADMIN_PASSWORD" //nolint:gosec
	appPasswordEnvVar   = "MCONTROL_DB_PASSWORD" //nolint:gosec
)

func main() {
	var adminHost string
	var adminPort int
	var appUser string
	var database string
	var hostPattern string
	var createUser bool

	rootCmd := &cobra.Command{
		Use:   "provision",
		Short: "Grant the application user full privileges on the maintenance database",
		Long: `Connects with administrative credentials, grants the application user all
privileges on the target database from the configured host pattern, and
flushes the privilege cache so the grant takes effect without a restart.`,
		Run: func(cmd *cobra.Command, args []string) {
			adminUser := viper.GetString(adminUserEnvVar)
			if adminUser == "" {
				log.Fatalf("ERROR: environment variable %s is not set", adminUserEnvVar)
			}
			adminPassword := viper.GetString(adminPasswordEnvVar)
			if adminPassword == "" {
				log.Fatalf("ERROR: environment variable %s is not set", adminPasswordEnvVar)
			}
			appPassword := viper.GetString(appPasswordEnvVar)
			if createUser && appPassword == "" {
				log.Fatalf("ERROR: environment variable %s is not set (required with --create-user)", appPasswordEnvVar)
			}

			adminDSN := fmt.Sprintf("%s:%s@tcp(%s:%d)/mysql", adminUser, adminPassword, adminHost, adminPort)
			p := provision.New(adminDSN)
			p.AppUser = appUser
			p.AppPassword = appPassword
			p.Database = database
			p.HostPattern = hostPattern
			p.CreateUser = createUser

			if err := p.Apply(context.Background()); err != nil {
				log.Fatalf("provisioning failed: %v", err)
			}
			fmt.Printf("Granted all privileges on %s.* to '%s'@'%s'\n", database, appUser, hostPattern)
		},
	}

	rootCmd.Flags().StringVar(&adminHost, "admin-host", "127.0.0.1", "Database host to connect to with admin credentials")
	rootCmd.Flags().IntVar(&adminPort, "admin-port", 3306, "Database port")
	rootCmd.Flags().StringVar(&appUser, "app-user", provision.DefaultAppUser, "Application user to grant privileges to")
	rootCmd.Flags().StringVar(&database, "database", provision.DefaultDatabase, "Database the privileges apply to")
	rootCmd.Flags().StringVar(&hostPattern, "host-pattern", provision.DefaultHostPattern,
		fmt.Sprintf("Host pattern the user may connect from (e.g. %q to restrict to the rack subnet)", provision.SubnetHostPattern))
	rootCmd.Flags().BoolVar(&createUser, "create-user", true, "Create the application user if it does not exist")

	viper.AutomaticEnv() // binds environment variables to viper config

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}
