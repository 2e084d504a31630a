/*
Copyright © 2025 ChimaHTT Logistics

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/provider"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/syncer"
)

var version = "0.3.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "chimahtt",
	Short: "Multilingual content synchronizer",
	Long: `Maintains machine-translated locale copies of editorial content
(services, job postings, news articles) authored in a canonical locale.

Content is written once in the canonical locale; every create or update
fans out to the configured target locales through the translation
provider, using the credential stored for the item's domain.

Use "chimahtt content --help" and "chimahtt credential --help".`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.chimahtt.yaml)")
	rootCmd.PersistentFlags().String("db", "chimahtt.db", "SQLite database path")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))

	viper.SetDefault("provider", "openrouter")
	viper.SetDefault("provider_base_url", "")
	viper.SetDefault("provider_model", "")
	viper.SetDefault("canonical_locale", "vi")
	viper.SetDefault("target_locales", []string{"en", "zh"})
	viper.SetDefault("timeout", "2m")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".chimahtt")
		}
	}

	viper.SetEnvPrefix("CHIMAHTT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// newProviderClient builds the configured translation provider client.
func newProviderClient() (provider.Client, error) {
	switch name := viper.GetString("provider"); name {
	case "openrouter":
		return provider.NewOpenRouterClient(viper.GetString("provider_base_url"), viper.GetString("provider_model")), nil
	case "google":
		return provider.NewGoogleClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// syncConfig assembles the synchronizer locale configuration.
func syncConfig() syncer.Config {
	timeout, err := time.ParseDuration(viper.GetString("timeout"))
	if err != nil {
		timeout = syncer.DefaultTimeout
	}
	return syncer.Config{
		CanonicalLocale: viper.GetString("canonical_locale"),
		TargetLocales:   viper.GetStringSlice("target_locales"),
		Timeout:         timeout,
	}
}
