package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alanyang/prodline/internal/wire"
)

func newContactCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage messaging handles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <actor-id> <phone>",
		Short: "Register the handle notifications are sent to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := parseUUIDArg("actor id", args[0])
			if err != nil {
				return err
			}
			return ctx.withCore(cmd, func(c context.Context, core *wire.Core) error {
				handle, err := core.Services.Contacts.SetHandle(c, actor, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", actor, handle)
				return nil
			})
		},
	})
	return cmd
}
