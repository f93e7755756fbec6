package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/vetsession/jwt"
	"github.com/MrEthical07/vetsession/navigation"
	"github.com/MrEthical07/vetsession/permission"
)

type decodeOutput struct {
	Subject   string      `json:"subject"`
	Name      string      `json:"name,omitempty"`
	Contact   jwt.Contact `json:"contact"`
	Roles     []string    `json:"roles"`
	IssuedAt  time.Time   `json:"issuedAt,omitzero"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Expired   bool        `json:"expired"`
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <credential>",
		Short: "Decode a bearer credential without verifying its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := jwt.Decode(args[0])
			if err != nil {
				return err
			}
			out := decodeOutput{
				Subject:   claims.Subject,
				Name:      claims.Name,
				Contact:   claims.Contact,
				Roles:     claims.Roles,
				ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
				Expired:   jwt.IsExpired(claims, time.Now()),
			}
			if claims.IssuedAt != 0 {
				out.IssuedAt = time.Unix(claims.IssuedAt, 0).UTC()
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newResolveCmd() *cobra.Command {
	var roles []string
	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve the active role for a path and role set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := permission.ResolveDetail(args[0], roles)
			fmt.Fprintf(cmd.OutOrStdout(), "role=%s source=%s held=%t\n", res.Role, res.Source, res.Held)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "role tags held by the session")
	return cmd
}

func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu <role>",
		Short: "Print the navigation menu for a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := permission.ParseRole(args[0])
			if !ok {
				return fmt.Errorf("unknown role %q", args[0])
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, navigation.Title(role))
			for _, item := range navigation.BuildMenu(role) {
				fmt.Fprintf(w, "  %-24s %s\n", item.Label, item.Path)
			}
			return nil
		},
	}
}

func newMintCmd(c *cli) *cobra.Command {
	var (
		subject string
		name    string
		roles   []string
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a development credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := strings.TrimSpace(c.v.GetString("mint.secret"))
			ttl := c.v.GetDuration("mint.ttl")
			if ttl <= 0 {
				ttl = time.Hour
			}
			issuer, err := jwt.NewIssuer(jwt.IssuerConfig{TTL: ttl, Secret: []byte(secret), Issuer: "vetsession-dev"})
			if err != nil {
				return err
			}
			token, err := issuer.Issue(subject, name, jwt.Contact{}, roles...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "1", "subject claim")
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"User"}, "role tags")
	cmd.Flags().String("secret", "", "signing secret (config: mint.secret)")
	cmd.Flags().Duration("ttl", time.Hour, "credential lifetime (config: mint.ttl)")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := c.v.BindPFlag("mint.secret", cmd.Flags().Lookup("secret")); err != nil {
			return err
		}
		return c.v.BindPFlag("mint.ttl", cmd.Flags().Lookup("ttl"))
	}
	return cmd
}
