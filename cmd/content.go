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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/content"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/credential"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/store"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/syncer"
)

var (
	contentDomain string
	contentInput  string
	contentPolicy string
	contentID     string
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Create, update, and inspect localized content",
}

var contentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a content item and translate it into all target locales",
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, err := content.ParseDomain(contentDomain)
		if err != nil {
			return err
		}
		attrs, err := readAttributes(contentInput)
		if err != nil {
			return err
		}
		policy, err := resolvePolicy(domain)
		if err != nil {
			return err
		}

		sync, cleanup, err := buildSynchronizer()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := sync.CreateEntity(context.Background(), domain, attrs, policy)
		printOutcome(result, err)
		return err
	},
}

var contentUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace a content item's canonical attributes and re-translate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if contentID == "" {
			return fmt.Errorf("--id is required")
		}
		attrs, err := readAttributes(contentInput)
		if err != nil {
			return err
		}

		sync, cleanup, err := buildSynchronizer()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()

		var policy content.Policy
		if contentPolicy != "" {
			policy, err = content.ParsePolicy(contentPolicy)
			if err != nil {
				return err
			}
		} else {
			existing, getErr := sync.GetEntity(ctx, contentID)
			if getErr != nil {
				return getErr
			}
			policy = content.DefaultPolicy(existing.Entity.Domain)
		}

		result, err := sync.UpdateEntity(ctx, contentID, attrs, policy)
		printOutcome(result, err)
		return err
	},
}

var contentShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a content item with all its translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if contentID == "" {
			return fmt.Errorf("--id is required")
		}

		sync, cleanup, err := buildSynchronizer()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := sync.GetEntity(context.Background(), contentID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func readAttributes(path string) (content.Attributes, error) {
	var attrs content.Attributes
	if path == "" {
		return attrs, fmt.Errorf("--input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return attrs, fmt.Errorf("failed to read input file: %w", err)
	}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return attrs, fmt.Errorf("failed to parse input file: %w", err)
	}
	return attrs, nil
}

func resolvePolicy(domain content.Domain) (content.Policy, error) {
	if contentPolicy == "" {
		return content.DefaultPolicy(domain), nil
	}
	return content.ParsePolicy(contentPolicy)
}

// buildSynchronizer opens the store and wires the synchronizer from
// the viper configuration. The returned cleanup closes the store.
func buildSynchronizer() (*syncer.Synchronizer, func(), error) {
	db, err := store.New(viper.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	client, err := newProviderClient()
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	sync := syncer.New(db, credential.NewCache(db), client, syncConfig(), nil)
	return sync, func() { db.Close() }, nil
}

// printOutcome reports per-locale results on stderr. A SyncError still
// has a committed canonical row worth showing.
func printOutcome(result *syncer.Result, err error) {
	if result == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Entity %s (%s)\n", result.Entity.ID, result.Entity.Domain)
	for _, tr := range result.Translations {
		fmt.Fprintf(os.Stderr, "  %s: %q (slug %s)\n", tr.Locale, tr.Attributes.Title, tr.Slug)
	}
	var syncErr *syncer.SyncError
	if errors.As(err, &syncErr) {
		fmt.Fprintf(os.Stderr, "  canonical committed, translation failed: %d locale(s)\n", len(syncErr.Errs))
	}
}

func init() {
	contentCreateCmd.Flags().StringVar(&contentDomain, "domain", "", "content domain: service, job, or news")
	contentCreateCmd.Flags().StringVar(&contentInput, "input", "", "JSON file with canonical attributes")
	contentCreateCmd.Flags().StringVar(&contentPolicy, "policy", "", "failure policy: strict or lenient (default per domain)")
	contentCreateCmd.MarkFlagRequired("domain")

	contentUpdateCmd.Flags().StringVar(&contentID, "id", "", "entity ID")
	contentUpdateCmd.Flags().StringVar(&contentInput, "input", "", "JSON file with canonical attributes")
	contentUpdateCmd.Flags().StringVar(&contentPolicy, "policy", "", "failure policy: strict or lenient (default per domain)")

	contentShowCmd.Flags().StringVar(&contentID, "id", "", "entity ID")

	contentCmd.AddCommand(contentCreateCmd)
	contentCmd.AddCommand(contentUpdateCmd)
	contentCmd.AddCommand(contentShowCmd)
	rootCmd.AddCommand(contentCmd)
}
