package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/aware/internal/cli"
	"github.com/aretw0/aware/internal/presentation/tui"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/spf13/cobra"
)

var throwCmd = &cobra.Command{
	Use:   "throw <signal> --source <entity>",
	Short: "Throw a signal and report who was notified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, stack, err := buildStack(ctx, cmd)
		if err != nil {
			return err
		}
		defer stack.Close(context.Background())

		source, _ := cmd.Flags().GetString("source")
		global, _ := cmd.Flags().GetBool("global")
		propagation, _ := cmd.Flags().GetInt("propagation")
		pairs, _ := cmd.Flags().GetStringArray("param")
		showTrace, _ := cmd.Flags().GetBool("trace")
		jsonMode, _ := cmd.Flags().GetBool("json")

		params, err := cli.ParseParams(pairs)
		if err != nil {
			return err
		}

		sig := domain.NewSignal(args[0], domain.EntityID(source))
		sig.Local = !global
		sig.Propagation = propagation
		sig.Params = params

		res, err := stack.Engine.Throw(ctx, sig)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		tui.PrintResult(out, res)
		if showTrace {
			rendered, err := tui.RendererFor(out)(tui.TraceMarkdown(res.Trace))
			if err != nil {
				return fmt.Errorf("failed to render trace: %w", err)
			}
			fmt.Fprint(out, rendered)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(throwCmd)
	throwCmd.Flags().StringP("source", "s", "", "Entity throwing the signal")
	throwCmd.Flags().Bool("global", false, "Deliver to every subscriber regardless of distance")
	throwCmd.Flags().IntP("propagation", "p", domain.DefaultPropagation, "Maximum exit traversals for a local throw")
	throwCmd.Flags().StringArray("param", nil, "Signal parameter as key=value (repeatable)")
	throwCmd.Flags().Bool("trace", false, "Print the dispatch trace")
	throwCmd.Flags().Bool("json", false, "Print the result as JSON")
	_ = throwCmd.MarkFlagRequired("source")
}
