package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/smazurov/nodepower/internal/power"
	"github.com/spf13/cobra"
)

// CreateLinesCmd creates the lines command.
func CreateLinesCmd() *cobra.Command {
	var opts boardOptions
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lines",
		Short: "List the lines of the board's GPIO chip",
		Long:  "Shows every line of the selected chip, marking the node enable lines. Useful to check the chip choice and whether another process holds a line.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := prepare(cmd, &opts); err != nil {
				return err
			}

			var infos []power.LineInfo
			if opts.Simulate {
				infos = simulatedLineInfos()
			} else {
				var err error
				if infos, err = listLines(power.ChipPath(opts.Latching)); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OFFSET\tNAME\tCONSUMER\tUSED\tNODE")
			for _, info := range infos {
				node := ""
				if i := slices.Index(power.LineNames[:], info.Name); i >= 0 {
					node = power.NodeAt(i).String()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", info.Offset, info.Name, info.Consumer, info.Used, node)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	addBoardFlags(cmd, &opts)
	return cmd
}

func simulatedLineInfos() []power.LineInfo {
	infos := make([]power.LineInfo, 0, power.NodeCount)
	for i, name := range power.LineNames {
		infos = append(infos, power.LineInfo{Offset: i, Name: name})
	}
	return infos
}
