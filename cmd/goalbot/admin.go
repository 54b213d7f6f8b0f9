package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jdelaire/goalbot/core/auth"
	"github.com/jdelaire/goalbot/core/policy"
	"github.com/jdelaire/goalbot/internal/keychain"
	"github.com/jdelaire/goalbot/internal/store"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <username>",
		Short: "Create an account; the password is read from the terminal or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret("Password", true)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			account, err := st.CreateAccount(cmd.Context(), args[0], hash)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %d created: %s\n", account.ID, account.Username)
			return nil
		},
	})
	return cmd
}

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Manage board membership",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add-member <board_id> <username> <owner|writer|reader>",
		Short: "Add an account to a board or change its role",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || boardID <= 0 {
				return fmt.Errorf("invalid board id %q", args[0])
			}
			role, err := policy.ParseRole(args[2])
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			username := args[1]
			account, err := st.GetAccount(cmd.Context(), &store.FindAccount{Username: &username})
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no account named %q", username)
			}
			if err != nil {
				return err
			}
			if err := st.UpsertParticipant(cmd.Context(), boardID, account.ID, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s on board %d\n", username, role, boardID)
			return nil
		},
	})
	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the Telegram bot token",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the bot token in the system keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readSecret("Bot token", false)
			if err != nil {
				return err
			}
			if err := keychain.Set(keychain.BotTokenAccount, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "bot token stored in keychain")
			return nil
		},
	})
	return cmd
}
