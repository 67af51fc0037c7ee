/*
Copyright © 2025 caselens
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/caselens/casefile-be/types"
)

// createUserCmd represents the create-user command
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	Long:  `Creates a user directly in the database. Used to bootstrap the first admin.`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")

		if role != types.USER_ROLE_ADMIN && role != types.USER_ROLE_USER {
			log.Fatalf("Unknown role: %s", role)
		}

		a, err := buildApp(cfgFile)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		user, err := a.userService.CreateUser(context.Background(), name, email, password, role)
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		a.logger.Infow("user created", "id", user.ID, "email", user.Email, "role", user.Role)
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	createUserCmd.Flags().String("name", "", "display name")
	createUserCmd.Flags().String("email", "", "login email (required)")
	createUserCmd.Flags().String("password", "", "password (required)")
	createUserCmd.Flags().String("role", types.USER_ROLE_USER, "role: admin or user")
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("password")
}
