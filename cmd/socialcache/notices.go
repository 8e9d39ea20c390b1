package main

import (
	"github.com/goliatone/go-social-cache/model"
	"github.com/spf13/cobra"
)

func newNoticesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notices",
		Short: "Read notices and unread counters",
	}

	var page int
	list := &cobra.Command{
		Use:       "list <comment|like|hate|friend_add|friend_remove>",
		Short:     "List one page of notices and mark the type read",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"comment", "like", "hate", "friend_add", "friend_remove"},
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.actor()
			if err != nil {
				return err
			}
			t, err := model.ParseNoticeType(args[0])
			if err != nil {
				return err
			}
			res, err := a.container.Notifier().List(cmd.Context(), t, user, model.NewPaging(page))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	list.Flags().IntVarP(&page, "page", "p", 1, "Page number")

	unread := &cobra.Command{
		Use:   "unread",
		Short: "Show unread notice counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.actor()
			if err != nil {
				return err
			}
			summary, err := a.container.Notifier().Unread(cmd.Context(), user)
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}

	cmd.AddCommand(list, unread)
	return cmd
}
