package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"mcontrold/config"
	"mcontrold/runner"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configPathEnvVar = "MCONTROL_CONFIG"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "entrypoint [flags] -- command [args...]",
		Short: "Ensure the maintenance-control configuration exists, then hand off to the given command",
		Long: `Checks for the configuration document and creates the default one if it is
missing (an existing document is never overwritten), then runs the supplied
command with inherited stdio and exits with its status.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if envPath := viper.GetString(configPathEnvVar); envPath != "" && !cmd.Flags().Changed("config") {
				configPath = envPath
			}

			created, err := config.EnsureDefault(configPath)
			if err != nil {
				log.Fatalf("failed to create default configuration: %v", err)
			}
			if created {
				fmt.Printf("Created default configuration at %s\n", configPath)
			} else {
				fmt.Printf("Configuration already present at %s\n", configPath)
			}

			if len(args) == 0 {
				return
			}

			fmt.Printf("Starting: %s\n", args[0])
			code, err := runner.Run(context.Background(), args[0], args[1:]...)
			if err != nil {
				log.Printf("failed to run %s: %v", args[0], err)
			}
			os.Exit(code)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Path to the configuration document")
	// everything after the first positional arg belongs to the handed-off command
	rootCmd.Flags().SetInterspersed(false)

	viper.AutomaticEnv() // binds environment variables to viper config

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}
