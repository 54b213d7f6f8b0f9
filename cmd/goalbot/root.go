package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "GOALBOT"

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "goalbot",
		Short:         "Telegram front end for the goals tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before reading the environment (ignored if missing).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error.")
	cmd.PersistentFlags().String("log-format", "text", "Logging format: text|json.")
	cmd.PersistentFlags().Bool("log-add-source", false, "Include source file:line in logs.")
	cmd.PersistentFlags().String("db-driver", "sqlite", "Database driver: sqlite|postgres.")
	cmd.PersistentFlags().String("db-dsn", "goalbot.db", "Database DSN (file path for sqlite).")

	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("env_file", cmd.PersistentFlags().Lookup("env-file"))
	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.add_source", cmd.PersistentFlags().Lookup("log-add-source"))
	_ = viper.BindPFlag("database.driver", cmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("database.dsn", cmd.PersistentFlags().Lookup("db-dsn"))

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newAccountCmd())
	cmd.AddCommand(newBoardCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	initViperDefaults()

	// Values already in the environment win over the dotenv file.
	if envFile := strings.TrimSpace(viper.GetString("env_file")); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", envFile, err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	cfgFile := strings.TrimSpace(viper.GetString("config"))
	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
	}
}
