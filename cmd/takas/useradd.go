package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"math/big"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/takascemberi/takas/internal/model"
	"github.com/takascemberi/takas/internal/store"
)

func newUseraddCmd() *cobra.Command {
	var role, password string

	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create an operator account",
		Long: `Create an operator account. Without --password a random password is
generated and printed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.ValidRole(role) {
				return fmt.Errorf("invalid role %q (admin or moderator)", role)
			}

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			generated := password == ""
			if generated {
				if password, err = generatePassword(16); err != nil {
					return err
				}
			}
			if err := createOperator(cmd.Context(), a.db, args[0], password, role); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s %s\n", role, args[0])
			if generated {
				fmt.Fprintf(out, "Password: %s\n", password)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", model.RoleModerator, "Operator role: admin or moderator")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (generated if empty)")
	return cmd
}

func createOperator(ctx context.Context, database *sql.DB, username, password, role string) error {
	if err := model.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := store.CreateUser(ctx, database, username, string(hash), role); err != nil {
		return err
	}
	return nil
}

// ensureAdmin creates an "admin" account with a random password when the
// database has no admin yet, and prints the credentials to w.
func ensureAdmin(ctx context.Context, database *sql.DB, w io.Writer) error {
	n, err := store.CountAdmins(ctx, database)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	if err := createOperator(ctx, database, "admin", password, model.RoleAdmin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	fmt.Fprintln(w, "Admin account created:")
	fmt.Fprintln(w, "  Username: admin")
	fmt.Fprintf(w, "  Password: %s\n", password)
	fmt.Fprintln(w, "Save this password, it cannot be recovered.")
	return nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
