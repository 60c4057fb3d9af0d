package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/systemstart/nebari/pkg/provider/keycloak"
	"github.com/systemstart/nebari/pkg/schema"
)

// Keycloak returns the keycloak command group for user administration on
// the platform's identity provider.
func Keycloak() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keycloak",
		Short: "Interact with the platform's Keycloak identity provider",
	}

	cmd.AddCommand(keycloakAddUser())
	cmd.AddCommand(keycloakListUsers())
	cmd.AddCommand(keycloakExportUsers())

	return cmd
}

func keycloakClient(cmd *cobra.Command, configPath string) (*keycloak.Client, error) {
	cfg, err := schema.Load(configPath)
	if err != nil {
		return nil, err
	}
	return keycloak.NewClientFromConfig(cmd.Context(), cfg)
}

func keycloakAddUser() *cobra.Command {
	var (
		configPath string
		user       []string
	)

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Add a user to Keycloak in the analyst group",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(user) != 2 {
				return fmt.Errorf("--user requires exactly <username> <password>")
			}

			client, err := keycloakClient(cmd, configPath)
			if err != nil {
				return err
			}
			if err := client.CreateUser(cmd.Context(), user[0], user[1]); err != nil {
				return err
			}
			fmt.Printf("added user %s\n", user[0])
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&user, "user", nil, "Provide both: <username> <password>")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to nebari configuration file (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func keycloakListUsers() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "listusers",
		Short: "List the users in Keycloak",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := keycloakClient(cmd, configPath)
			if err != nil {
				return err
			}

			users, err := client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			data := pterm.TableData{{"username", "email", "enabled"}}
			for _, u := range users {
				data = append(data, []string{u.Username, u.Email, fmt.Sprintf("%t", u.Enabled)})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to nebari configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func keycloakExportUsers() *cobra.Command {
	var (
		configPath string
		realm      string
	)

	cmd := &cobra.Command{
		Use:   "export-users",
		Short: "Export the users of a realm as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := keycloakClient(cmd, configPath)
			if err != nil {
				return err
			}

			users, err := client.ExportUsers(cmd.Context(), realm)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(users, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to nebari configuration file (required)")
	cmd.Flags().StringVar(&realm, "realm", keycloak.DefaultRealm, "Realm from which users are exported")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
