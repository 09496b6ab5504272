package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/NesmitC/project-webmath/internal/db"
	"github.com/NesmitC/project-webmath/internal/seed"
)

var (
	seedFile  string
	assumeYes bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if err := db.EnsureSchema(cmd.Context(), a.db, db.Driver(a.cfg.DBDriver)); err != nil {
			return err
		}
		fmt.Printf("Schema is up to date (%s)\n", a.cfg.DBDriver)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load diagnostic types, tests and questions",
	Long:  `Loads the built-in diagnostics, or the YAML file given with --file. Existing tests and question numbers are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		f := seed.Default()
		if seedFile != "" {
			if f, err = seed.ReadFile(seedFile); err != nil {
				return err
			}
		}
		st, err := seed.Apply(cmd.Context(), a.exams, f, a.log)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d types, %d tests, %d questions\n", st.Types, st.Tests, st.Questions)
		return nil
	},
}

var makeAdminCmd = &cobra.Command{
	Use:   "make-admin [username]",
	Short: "Grant the admin role to a user",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var username string
		if len(args) == 1 {
			username = args[0]
		} else {
			p := promptui.Prompt{
				Label: "Username or email",
				Validate: func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("must not be empty")
					}
					return nil
				},
			}
			var err error
			if username, err = p.Run(); err != nil {
				return fmt.Errorf("username prompt: %w", err)
			}
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		u, err := a.users.MakeAdmin(cmd.Context(), strings.TrimSpace(username))
		if err != nil {
			return fmt.Errorf("make %s admin: %w", username, err)
		}
		fmt.Printf("%s (%s) is now an admin\n", u.Username, u.Email)
		return nil
	},
}

var deleteUsersCmd = &cobra.Command{
	Use:   "delete-users",
	Short: "Delete every user together with their results",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm("Delete ALL users and their results"); err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		n, err := a.users.DeleteAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d users\n", n)
		return nil
	},
}

var clearResultsCmd = &cobra.Command{
	Use:   "clear-results",
	Short: "Delete every stored test result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm("Delete ALL test results"); err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		n, err := a.exams.DeleteAllResults(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d results\n", n)
		return nil
	},
}

// confirm asks before a destructive command unless --yes was given.
func confirm(label string) error {
	if assumeYes {
		return nil
	}
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		return errors.New("aborted")
	}
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed file (default: built-in diagnostics)")
	for _, c := range []*cobra.Command{deleteUsersCmd, clearResultsCmd} {
		c.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	}
	rootCmd.AddCommand(migrateCmd, seedCmd, makeAdminCmd, deleteUsersCmd, clearResultsCmd)
}
