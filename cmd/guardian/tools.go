package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/orders"
	"guardian-futures-engine/internal/risk"
)

func initConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [file]",
		Short: "Write a sample config.json from defaults and the current environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite", path)
			}
			if err := config.GenerateSampleConfig(path); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// decodedID is one clientOrderId broken into its parts
type decodedID struct {
	ID        string         `json:"id"`
	Valid     bool           `json:"valid"`
	Direction risk.Side      `json:"dir,omitempty"`
	Symbol    string         `json:"symbol,omitempty"`
	Leg       orders.LegType `json:"leg,omitempty"`
	BaseID    string         `json:"baseId,omitempty"`
	Candle    string         `json:"candle,omitempty"` // trigger candle, UTC, no year
}

func decodeIDs(ids []string) []decodedID {
	out := make([]decodedID, 0, len(ids))
	for _, id := range ids {
		d := decodedID{ID: id}
		if p := orders.ParseClientOrderID(id); p != nil {
			d.Valid = true
			d.Direction = p.Direction
			d.Symbol = p.Symbol
			d.Leg = p.Leg
			d.BaseID = p.BaseID
			d.Candle = p.Time.Format("02 Jan 15:04") + " UTC"
		}
		out = append(out, d)
	}
	return out
}

func decodeIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-id <clientOrderId>...",
		Short: "Decode suggested client order IDs from an order plan",
		Long: `decode-id splits IDs such as SHT-17OCT1430-BTCUSDT-TP1 into direction,
trigger candle time, symbol and leg. IDs in any other format are reported as
not valid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.OutOrStdout(), output, decodeIDs(args))
		},
	}
}
