package main

import (
	"fmt"

	"github.com/goliatone/go-social-cache/model"
	"github.com/spf13/cobra"
)

func newFriendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friend",
		Short: "Manage friends",
	}

	var msg string
	add := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Add a friend and notify them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, friend, err := a.friendPair(args[0])
			if err != nil {
				return err
			}
			if err := a.container.Friends().Add(cmd.Context(), user, friend, msg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "friend %d added\n", friend)
			return nil
		},
	}
	add.Flags().StringVarP(&msg, "message", "m", "", "Message sent with the notice")

	remove := &cobra.Command{
		Use:   "remove <user-id>",
		Short: "Remove a friend and notify them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, friend, err := a.friendPair(args[0])
			if err != nil {
				return err
			}
			if err := a.container.Friends().Remove(cmd.Context(), user, friend, msg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "friend %d removed\n", friend)
			return nil
		},
	}
	remove.Flags().StringVarP(&msg, "message", "m", "", "Message sent with the notice")

	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the acting user's friends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.container.Friends().List(cmd.Context(), user, model.NewPaging(page))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	list.Flags().IntVarP(&page, "page", "p", 1, "Page number")

	cmd.AddCommand(add, remove, list)
	return cmd
}

func (a *app) friendPair(arg string) (model.UserID, model.UserID, error) {
	user, err := a.actor()
	if err != nil {
		return 0, 0, err
	}
	friend, err := parseUserID(arg)
	if err != nil {
		return 0, 0, err
	}
	return user, friend, nil
}
