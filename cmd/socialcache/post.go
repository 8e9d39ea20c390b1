package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-social-cache/model"
	"github.com/spf13/cobra"
)

func newPostCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Create, read and react to posts",
	}

	var page int
	browse := &cobra.Command{
		Use:   "browse",
		Short: "List the newest posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.container.Posts().Browse(cmd.Context(), a.viewer(), model.NewPaging(page))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	browse.Flags().IntVarP(&page, "page", "p", 1, "Page number")

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List the acting user's posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.container.Posts().Mine(cmd.Context(), user, model.NewPaging(page))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	mine.Flags().IntVarP(&page, "page", "p", 1, "Page number")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <content>",
			Short: "Publish a post",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := a.actor()
				if err != nil {
					return err
				}
				p, err := a.container.Posts().Create(cmd.Context(), user, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printJSON(cmd, p)
			},
		},
		&cobra.Command{
			Use:   "show <post-id>",
			Short: "Show a post with its first comments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parsePostID(args[0])
				if err != nil {
					return err
				}
				thread, err := a.container.Posts().Get(cmd.Context(), a.viewer(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd, thread)
			},
		},
		&cobra.Command{
			Use:   "comment <post-id> <content>",
			Short: "Comment on a post",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := a.actor()
				if err != nil {
					return err
				}
				id, err := parsePostID(args[0])
				if err != nil {
					return err
				}
				c, err := a.container.Posts().Comment(cmd.Context(), user, id, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return printJSON(cmd, c)
			},
		},
		&cobra.Command{
			Use:   "delete <post-id>",
			Short: "Delete one of the acting user's posts",
			Args:  cobra.ExactArgs(1),
			RunE: a.postAction("deleted", func(ctx context.Context, user model.UserID, id model.ID) error {
				return a.container.Posts().Delete(ctx, user, id)
			}),
		},
		&cobra.Command{
			Use:   "like <post-id>",
			Short: "Like a post",
			Args:  cobra.ExactArgs(1),
			RunE: a.postAction("liked", func(ctx context.Context, user model.UserID, id model.ID) error {
				return a.container.Posts().Like(ctx, user, id)
			}),
		},
		&cobra.Command{
			Use:   "unlike <post-id>",
			Short: "Withdraw a like",
			Args:  cobra.ExactArgs(1),
			RunE: a.postAction("unliked", func(ctx context.Context, user model.UserID, id model.ID) error {
				return a.container.Posts().Unlike(ctx, user, id)
			}),
		},
		&cobra.Command{
			Use:   "hate <post-id>",
			Short: "Hate a post",
			Args:  cobra.ExactArgs(1),
			RunE: a.postAction("hated", func(ctx context.Context, user model.UserID, id model.ID) error {
				return a.container.Posts().Hate(ctx, user, id)
			}),
		},
		&cobra.Command{
			Use:   "unhate <post-id>",
			Short: "Withdraw a hate",
			Args:  cobra.ExactArgs(1),
			RunE: a.postAction("unhated", func(ctx context.Context, user model.UserID, id model.ID) error {
				return a.container.Posts().Unhate(ctx, user, id)
			}),
		},
		browse,
		mine,
	)
	return cmd
}

func (a *app) postAction(done string, action func(ctx context.Context, user model.UserID, id model.ID) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		user, err := a.actor()
		if err != nil {
			return err
		}
		id, err := parsePostID(args[0])
		if err != nil {
			return err
		}
		if err := action(cmd.Context(), user, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "post %s %s\n", id, done)
		return nil
	}
}
