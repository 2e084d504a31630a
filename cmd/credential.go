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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/credential"
)

var (
	credGroup  string
	credSecret string
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage per-domain translation provider credentials",
	Long: `Each content domain (service, job, news) carries its own provider
secret in the configuration store. The in-memory cache used during
translation refreshes on "set" and "test", not on external edits.`,
}

var credentialSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the provider secret for a domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		group, err := credential.ParseGroup(credGroup)
		if err != nil {
			return err
		}
		if credSecret == "" {
			return fmt.Errorf("--secret is required")
		}

		sync, cleanup, err := buildSynchronizer()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := sync.SetCredential(context.Background(), group, credSecret); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Credential for %s stored.\n", group)
		return nil
	},
}

var credentialTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check whether a stored or raw secret is usable",
	Long: `With --group, re-reads the stored secret and exercises it against the
provider. With --secret, validates a raw value without touching the
store. Quota exhaustion counts as valid: the key itself works.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if credGroup == "" && credSecret == "" {
			return fmt.Errorf("one of --group or --secret is required")
		}

		sync, cleanup, err := buildSynchronizer()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()

		var ok bool
		if credSecret != "" {
			ok = sync.TestCredentialValue(ctx, credSecret)
		} else {
			group, parseErr := credential.ParseGroup(credGroup)
			if parseErr != nil {
				return parseErr
			}
			ok = sync.TestCredentialGroup(ctx, group)
		}

		if ok {
			fmt.Println("valid")
			return nil
		}
		fmt.Println("invalid")
		return nil
	},
}

var credentialDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored secret for a domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		group, err := credential.ParseGroup(credGroup)
		if err != nil {
			return err
		}

		sync, cleanup, err := buildSynchronizer()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := sync.DeleteCredential(context.Background(), group); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Credential for %s deleted.\n", group)
		return nil
	},
}

func init() {
	credentialSetCmd.Flags().StringVar(&credGroup, "group", "", "credential group: service, job, or news")
	credentialSetCmd.Flags().StringVar(&credSecret, "secret", "", "provider secret")
	credentialSetCmd.MarkFlagRequired("group")

	credentialTestCmd.Flags().StringVar(&credGroup, "group", "", "credential group to test")
	credentialTestCmd.Flags().StringVar(&credSecret, "secret", "", "raw secret to test without storing")

	credentialDeleteCmd.Flags().StringVar(&credGroup, "group", "", "credential group: service, job, or news")
	credentialDeleteCmd.MarkFlagRequired("group")

	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialTestCmd)
	credentialCmd.AddCommand(credentialDeleteCmd)
	rootCmd.AddCommand(credentialCmd)
}
