package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/aware/internal/cli"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/spf13/cobra"
)

var subsCmd = &cobra.Command{
	Use:   "subs [signal]",
	Short: "List subscriptions",
	Long:  `Without arguments, lists the signal names with subscriptions. With a signal name, lists its records in insertion order.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, stack, err := buildStack(ctx, cmd)
		if err != nil {
			return err
		}
		defer stack.Close(context.Background())

		out := cmd.OutOrStdout()
		if entity, _ := cmd.Flags().GetString("entity"); entity != "" {
			for _, name := range stack.Engine.SubscriptionsOf(domain.EntityID(entity)) {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		if len(args) == 0 {
			for _, name := range stack.Engine.Signals() {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tSUBSCRIBER\tHANDLER\tPARAMS")
		for _, sub := range stack.Engine.Lookup(args[0]) {
			handler := sub.Action
			if sub.Callback != "" {
				handler = "callback:" + sub.Callback
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%v\n", sub.Seq, sub.Subscriber, handler, map[string]any(sub.Params))
		}
		return tw.Flush()
	},
}

var subsAddCmd = &cobra.Command{
	Use:   "add <signal> <subscriber>",
	Short: "Subscribe an entity to a signal name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeSubscription(cmd, args, true)
	},
}

var subsRmCmd = &cobra.Command{
	Use:   "rm <signal> <subscriber>",
	Short: "Remove a subscription",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeSubscription(cmd, args, false)
	},
}

func changeSubscription(cmd *cobra.Command, args []string, add bool) error {
	ctx := cmd.Context()
	_, stack, err := buildStack(ctx, cmd)
	if err != nil {
		return err
	}
	defer stack.Close(context.Background())

	action, _ := cmd.Flags().GetString("action")
	callback, _ := cmd.Flags().GetString("callback")
	pairs, _ := cmd.Flags().GetStringArray("param")
	params, err := cli.ParseParams(pairs)
	if err != nil {
		return err
	}
	sub := domain.Subscription{
		Signal:     args[0],
		Subscriber: domain.EntityID(args[1]),
		Action:     action,
		Callback:   callback,
		Params:     params,
	}

	out := cmd.OutOrStdout()
	if add {
		stored, err := stack.Engine.Subscribe(ctx, sub)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "subscribed %s to %s (seq %d)\n", stored.Subscriber, stored.Signal, stored.Seq)
		return nil
	}

	removed, err := stack.Engine.Unsubscribe(ctx, sub)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintln(out, "no matching subscription")
		return nil
	}
	fmt.Fprintf(out, "unsubscribed %s from %s\n", sub.Subscriber, sub.Signal)
	return nil
}

func init() {
	rootCmd.AddCommand(subsCmd)
	subsCmd.AddCommand(subsAddCmd, subsRmCmd)
	subsCmd.Flags().String("entity", "", "List the signal names an entity is subscribed to")
	for _, c := range []*cobra.Command{subsAddCmd, subsRmCmd} {
		c.Flags().String("action", "", "Action bound to the subscription (default action when empty)")
		c.Flags().String("callback", "", "Callback bound to the subscription")
		c.Flags().StringArray("param", nil, "Subscription parameter as key=value (repeatable)")
	}
}
