package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/smazurov/nodepower/internal/led"
	"github.com/spf13/cobra"
)

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid state %q: want on or off", s)
}

// CreateLEDCmd creates the led command.
func CreateLEDCmd() *cobra.Command {
	var opts boardOptions

	cmd := &cobra.Command{
		Use:       "led <power|status> <on|off>",
		Short:     "Switch a front panel indicator",
		Example:   "  nodepower led status on",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{led.Power, led.Status},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if name != led.Power && name != led.Status {
				return fmt.Errorf("%w %q: want %s or %s", led.ErrUnknownLED, name, led.Power, led.Status)
			}
			on, err := parseOnOff(args[1])
			if err != nil {
				return err
			}
			return withHardware(cmd, &opts, func(ctx context.Context, hw Hardware) error {
				if err := hw.SetLED(ctx, name, on); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s led %s\n", name, onOff(on))
				return nil
			})
		},
	}

	addBoardFlags(cmd, &opts)
	return cmd
}
