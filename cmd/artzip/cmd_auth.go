package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token in the profile",
	RunE:  runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	c := apiClient()
	tok, err := c.Login(ctx, loginEmail, loginPassword)
	if err != nil {
		return err
	}

	session.Token = tok.AccessToken
	session.UserID = tok.UserID
	session.Email = loginEmail
	if err := session.Save(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (user %d)\n", loginEmail, tok.UserID)
	return nil
}
