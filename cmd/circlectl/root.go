package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	dsnKey        = "dsn"
	signingKeyKey = "signing_key"
)

var rootCmd = &cobra.Command{
	Use:           "circlectl",
	Short:         "Operator tooling for the wakuwork server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.circlectl.yaml)")
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("signing-key", "", "base64 encoded signing key")

	viper.BindPFlag(dsnKey, rootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag(signingKeyKey, rootCmd.PersistentFlags().Lookup("signing-key"))
	viper.SetDefault(dsnKey, "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable")
}

// initConfig layers the config file and WAKUWORK_* environment under flags.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".circlectl")
	}

	viper.SetEnvPrefix("wakuwork")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "error reading config file:", err)
		}
	}
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "[circlectl] ", log.LstdFlags)
}

func requireString(key string) (string, error) {
	v := viper.GetString(key)
	if v == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return v, nil
}
