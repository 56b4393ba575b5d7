package main

import (
	"context"
	"fmt"

	"github.com/aretw0/aware/internal/presentation/graph"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the world as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of the world fixture. With --from, the locations a
local signal thrown by that entity would reach are highlighted with their distance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, stack, err := buildStack(ctx, cmd)
		if err != nil {
			return err
		}
		defer stack.Close(context.Background())

		var overlay *graph.ReachOverlay
		if from, _ := cmd.Flags().GetString("from"); from != "" {
			propagation, _ := cmd.Flags().GetInt("propagation")
			reach, err := stack.Engine.Reachable(ctx, domain.EntityID(from), propagation)
			if err != nil {
				return err
			}
			origin, _, err := stack.Engine.World().LocationOf(ctx, domain.EntityID(from))
			if err != nil {
				return err
			}
			overlay = &graph.ReachOverlay{Origin: origin, Reach: reach}
		}

		output, err := graph.GenerateMermaid(ctx, stack.Engine.World(), stack.World.Locations(), overlay)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("from", "", "Highlight the reach of a signal thrown by this entity")
	graphCmd.Flags().IntP("propagation", "p", domain.DefaultPropagation, "Propagation used with --from")
}
