package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/goliatone/go-social-cache/model"
	"github.com/goliatone/go-social-cache/pkg/config"
	"github.com/goliatone/go-social-cache/pkg/di"
	"github.com/spf13/cobra"
)

// app carries the container shared by one command invocation.
type app struct {
	configPath string
	user       int64
	container  *di.Container
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "socialcache",
		Short:         "Social counters and notices over a Redis cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.container, err = di.NewContainer(cmd.Context(), cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.container == nil {
				return nil
			}
			return a.container.Close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "socialcache.yaml", "Path to the YAML configuration file")
	root.PersistentFlags().Int64VarP(&a.user, "user", "u", 0, "Id of the acting user")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "socialcache v%s (%s)\n", version, commit)
			},
		},
		newPostCmd(a),
		newFriendCmd(a),
		newNoticesCmd(a),
		newMetricsCmd(a),
	)
	return root
}

// viewer returns the acting user, or nil when none was given.
func (a *app) viewer() *model.UserID {
	if a.user == 0 {
		return nil
	}
	u := model.UserID(a.user)
	return &u
}

// actor returns the acting user and fails when none was given.
func (a *app) actor() (model.UserID, error) {
	if a.user == 0 {
		return 0, fmt.Errorf("--user is required")
	}
	return model.UserID(a.user), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parsePostID(s string) (model.ID, error) {
	return model.ParseID(s)
}

func parseUserID(s string) (model.UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	return model.UserID(n), nil
}
