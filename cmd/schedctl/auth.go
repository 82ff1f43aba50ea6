package main

import (
	"github.com/spf13/cobra"
)

func addSignup(topLevel *cobra.Command) {
	o := &CredentialOptions{}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Example: `
schedctl signup --name Taro --email taro@example.com --password secret1
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			res := a.session.Signup(cmd.Context(), o.Name, o.Email, o.Password)
			return a.report(res, "Signed up. Run schedctl login to start.")
		},
	}

	AddCredentialArgs(cmd, o, true)
	topLevel.AddCommand(cmd)
}

func addLogin(topLevel *cobra.Command) {
	o := &CredentialOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Example: `
schedctl login --email taro@example.com --password secret1
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			// Start fresh so the server checks the password.
			a.client.SetToken("")
			res := a.session.Login(cmd.Context(), o.Email, o.Password)
			if !res.Success {
				return a.report(res, "")
			}
			return a.report(res, "Logged in as "+a.session.User().Name+".")
		},
	}

	AddCredentialArgs(cmd, o, false)
	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session on every device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.report(a.session.Logout(cmd.Context()), "Logged out successfully.")
		},
	}

	topLevel.AddCommand(cmd)
}

func addCategories(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			res := a.categories.Fetch(cmd.Context())
			if !res.Success {
				return a.report(res, "")
			}
			a.printer.Categories(a.categories.Items())
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
