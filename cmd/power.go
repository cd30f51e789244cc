package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/smazurov/nodepower/internal/power"
	"github.com/spf13/cobra"
)

// parseByte accepts decimal, 0x, 0o and 0b forms.
func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: want 0-255, e.g. 5, 0x0f, 0b0101", s)
	}
	return uint8(v), nil
}

// CreatePowerCmd creates the power command.
func CreatePowerCmd() *cobra.Command {
	var opts boardOptions
	var state, mask string

	cmd := &cobra.Command{
		Use:   "power",
		Short: "Switch nodes on or off",
		Long: "Applies --state to the nodes selected by --mask. Bit 0 is node 1. " +
			"Nodes are changed one at a time, lowest first; each gets its state attribute written, " +
			"a 100ms settle delay, then its enable line driven.",
		Example: "  nodepower power --state 0b0101 --mask 0xf\n  nodepower power --state 0 --mask 2",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := parseByte(state)
			if err != nil {
				return fmt.Errorf("--state: %w", err)
			}
			m, err := parseByte(mask)
			if err != nil {
				return fmt.Errorf("--mask: %w", err)
			}

			return withHardware(cmd, &opts, func(ctx context.Context, hw Hardware) error {
				if err := hw.SetPowerNode(ctx, s, m); err != nil {
					return err
				}
				for index, on := range power.Bits(s, m&power.AllNodes) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", power.NodeAt(index), onOff(on))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "0", "Desired power state bits")
	cmd.Flags().StringVar(&mask, "mask", "0", "Nodes to change")
	_ = cmd.MarkFlagRequired("mask")
	addBoardFlags(cmd, &opts)
	return cmd
}

// CreateResetCmd creates the reset command.
func CreateResetCmd() *cobra.Command {
	var opts boardOptions

	cmd := &cobra.Command{
		Use:       "reset <node>",
		Short:     "Power-cycle a node",
		Long:      "Switches the node off, waits one second and switches it back on.",
		Example:   "  nodepower reset 3\n  nodepower reset node2",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"1", "2", "3", "4"},
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := power.ParseNodeID(args[0])
			if err != nil {
				return err
			}
			return withHardware(cmd, &opts, func(ctx context.Context, hw Hardware) error {
				if err := hw.ResetNode(ctx, node); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s reset\n", node)
				return nil
			})
		},
	}

	addBoardFlags(cmd, &opts)
	return cmd
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
