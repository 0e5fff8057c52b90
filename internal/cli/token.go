package cli

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/nurpe/pointage/internal/auth"
	"github.com/nurpe/pointage/internal/model"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
		secret  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				secret = cfg.Auth.AccessSecret
			}
			if secret == "" {
				return fmt.Errorf("JWT_ACCESS_SECRET is not set")
			}
			switch model.Role(role) {
			case model.RoleEmployee, model.RoleEmployer, model.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			now := time.Now()
			token, err := auth.NewParser(secret).Issue(subject, model.Role(role), jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "User id the token is issued for")
	cmd.Flags().StringVar(&role, "role", string(model.RoleEmployee), "Role: employe, employeur, admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_ACCESS_SECRET)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
