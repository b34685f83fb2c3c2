package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treegar/admin-console/internal/session"
)

// withApp builds the app for one command run and closes it afterwards.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}

func authCommands() []*cobra.Command {
	var email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			if err := a.requireView(ctx, session.ViewLogin); err != nil {
				return err
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			st, err := a.auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if st == session.PendingTwoFactor {
				fmt.Fprintln(cmd.OutOrStdout(), "A verification code was sent. Run \"treegar-admin otp <code>\".")
				return nil
			}
			if u, _ := a.sess.User(ctx); u != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", u.Email)
			}
			return nil
		}),
	}
	login.Flags().StringVar(&email, "email", "", "account email")
	login.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	_ = login.MarkFlagRequired("email")

	otp := &cobra.Command{
		Use:   "otp <code>",
		Short: "Complete a two-factor login",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.requireView(cmd.Context(), session.ViewTwoFactor); err != nil {
				return err
			}
			u, err := a.auth.VerifyOTP(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", u.Email)
			return nil
		}),
	}

	resend := &cobra.Command{
		Use:   "resend-otp",
		Short: "Send a new two-factor code",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if err := a.requireView(cmd.Context(), session.ViewTwoFactor); err != nil {
				return err
			}
			if err := a.auth.ResendOTP(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "A new code was sent.")
			return nil
		}),
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			return a.auth.Logout(cmd.Context())
		}),
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in operator",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			st, err := a.sess.State(cmd.Context())
			if err != nil {
				return err
			}
			if st != session.Authenticated {
				fmt.Fprintln(cmd.OutOrStdout(), st)
				return nil
			}
			u, err := a.auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		}),
	}

	return []*cobra.Command{login, otp, resend, logout, whoami}
}
