package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/devbasics/internal/adapters/hatch"
	"github.com/okian/devbasics/internal/adapters/repository"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/internal/session"
)

var errNoStoreDir = errors.New("store_dir is not configured")

func newSessionCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or change the stored session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(s *session.Store) error {
				return printJSON(cmd.OutOrStdout(), s.Snapshot())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the stored user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(s *session.Store) error {
				if err := s.Logout(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return err
			})
		},
	})

	cmd.AddCommand(newLoginCommand(c))
	return cmd
}

func newLoginCommand(c *cli) *cobra.Command {
	var (
		creds    model.Credentials
		register bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in or register against the external API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.StoreDir == "" {
				return errNoStoreDir
			}
			mode := model.ModeLogin
			if register {
				mode = model.ModeRegister
			}

			svc := newService(c)
			if err := svc.Start(cmd.Context()); err != nil {
				return err
			}
			defer svc.Stop(context.Background())

			store := svc.Session()
			store.OpenModal(mode)
			res, err := store.SubmitAuth(cmd.Context(), mode, creds)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	cmd.Flags().StringVar(&creds.Name, "name", "", "display name, required with --register")
	cmd.Flags().BoolVar(&register, "register", false, "create the account instead of logging in")
	return cmd
}

// withStore opens the session store over the configured store dir.
func (c *cli) withStore(ctx context.Context, fn func(*session.Store) error) error {
	if c.cfg.StoreDir == "" {
		return errNoStoreDir
	}
	slot, err := repository.NewFileStore(c.cfg.StoreDir)
	if err != nil {
		return err
	}
	s, err := session.NewStore(ctx,
		session.WithSlot(slot),
		session.WithHatch(hatch.NewRegistry()),
		session.WithLogger(c.log.Named("session")),
	)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()
	return fn(s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
