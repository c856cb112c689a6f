package command

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/example/commute-matching/internal/geo"
	httpapi "github.com/example/commute-matching/internal/http"
)

var zoneCmd = &cobra.Command{
	Use:   "zone <location>",
	Short: "Print the commute zone of a location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		zones, err := buildZones(cfg)
		if err != nil {
			return err
		}
		z := zones.Classify(args[0])
		restricted := ""
		if zones.Table().Restricted(z) {
			restricted = " (restricted)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", z, restricted)
		return nil
	},
}

var etaFlags struct {
	lat, lng float64
	shift    string
	at       string
}

var etaCmd = &cobra.Command{
	Use:   "eta",
	Short: "Plan a pickup for a point and shift start",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		est, err := buildEstimator(cfg)
		if err != nil {
			return err
		}
		now := time.Now()
		if etaFlags.at != "" {
			if now, err = time.Parse(time.RFC3339, etaFlags.at); err != nil {
				return fmt.Errorf("--at: %w", err)
			}
		}
		plan, err := est.Plan(geo.Point{Lat: etaFlags.lat, Lng: etaFlags.lng}, etaFlags.shift, now)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	},
}

var tokenFlags struct {
	subject string
	role    string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an API token with the configured JWT secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not configured")
		}
		tok, err := httpapi.IssueToken(cfg.JWTSecret, tokenFlags.subject, tokenFlags.role, tokenFlags.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	etaCmd.Flags().Float64Var(&etaFlags.lat, "lat", 0, "pickup latitude")
	etaCmd.Flags().Float64Var(&etaFlags.lng, "lng", 0, "pickup longitude")
	etaCmd.Flags().StringVar(&etaFlags.shift, "shift", "", "shift start as HH:MM")
	etaCmd.Flags().StringVar(&etaFlags.at, "at", "", "plan as of this RFC3339 time instead of now")
	_ = etaCmd.MarkFlagRequired("lat")
	_ = etaCmd.MarkFlagRequired("lng")
	_ = etaCmd.MarkFlagRequired("shift")

	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "", "token subject")
	tokenCmd.Flags().StringVar(&tokenFlags.role, "role", httpapi.RoleAdmin, "role claim")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
}
