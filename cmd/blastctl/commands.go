package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hperssn/blastemst/internal/bridge"
	"github.com/hperssn/blastemst/internal/domain"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or delete sessions",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: withBridge(func(cmd *cobra.Command, _ []string, b *bridge.Native) error {
			raw := b.GetAllSessions(cmd.Context())
			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), raw)
				return nil
			}

			var sessions []domain.Session
			if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
				return fmt.Errorf("decode sessions: %w", err)
			}
			return printSessions(cmd, sessions)
		}),
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON array")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its reps",
		Args:  cobra.ExactArgs(1),
		RunE: withBridge(func(cmd *cobra.Command, args []string, b *bridge.Native) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}

			var sessions []domain.Session
			if err := json.Unmarshal([]byte(b.GetAllSessions(cmd.Context())), &sessions); err != nil {
				return fmt.Errorf("decode sessions: %w", err)
			}
			if !slices.ContainsFunc(sessions, func(s domain.Session) bool { return s.ID == id }) {
				return fmt.Errorf("session %d not found", id)
			}

			b.DeleteSession(cmd.Context(), id)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %d\n", id)
			return nil
		}),
	}

	cmd.AddCommand(list, del)
	return cmd
}

func printSessions(cmd *cobra.Command, sessions []domain.Session) error {
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tENDED\tPRESSURE\tREPS\tNOTES")
	for _, s := range sessions {
		ended := "active"
		if s.EndTime != nil {
			ended = s.EndTime.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			s.ID, s.StartTime.Local().Format("2006-01-02 15:04"), ended, s.PressureSetting, s.RepCount, s.Notes)
	}
	return w.Flush()
}

// settingDefaults maps every known key to its default value.
func settingDefaults() map[string]string {
	out := make(map[string]string)
	for _, kv := range domain.DefaultSettings().Pairs() {
		out[kv.Key] = kv.Value
	}
	return out
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or write individual settings",
		Long: `Read or write individual settings.

Writing reminders_enabled here does not reschedule reminders; the server
does that when settings are saved through its API.`,
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: withBridge(func(cmd *cobra.Command, args []string, b *bridge.Native) error {
			defaults := settingDefaults()
			if len(args) == 1 {
				def, ok := defaults[args[0]]
				if !ok {
					return fmt.Errorf("unknown setting %q", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), b.GetSetting(cmd.Context(), args[0], def))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, kv := range domain.DefaultSettings().Pairs() {
				fmt.Fprintf(w, "%s\t%s\n", kv.Key, b.GetSetting(cmd.Context(), kv.Key, kv.Value))
			}
			return w.Flush()
		}),
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write one setting",
		Args:  cobra.ExactArgs(2),
		RunE: withBridge(func(cmd *cobra.Command, args []string, b *bridge.Native) error {
			if _, ok := settingDefaults()[args[0]]; !ok {
				return fmt.Errorf("unknown setting %q", args[0])
			}
			b.SetSetting(cmd.Context(), args[0], args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		}),
	}

	cmd.AddCommand(get, set)
	return cmd
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the user profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the profile as JSON",
		Args:  cobra.NoArgs,
		RunE: withBridge(func(cmd *cobra.Command, _ []string, b *bridge.Native) error {
			var p domain.UserProfile
			if err := json.Unmarshal([]byte(b.GetProfile(cmd.Context())), &p); err != nil {
				return fmt.Errorf("decode profile: %w", err)
			}
			out, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}),
	}

	cmd.AddCommand(show)
	return cmd
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show progress toward this week's session goal",
		Args:  cobra.NoArgs,
		RunE: withBridge(func(cmd *cobra.Command, _ []string, b *bridge.Native) error {
			ctx := cmd.Context()
			goal := domain.WeeklyGoalFrom(b.GetSetting(ctx, domain.KeyWeeklyGoal, strconv.Itoa(domain.DefaultWeeklyGoal)))
			done := b.GetSessionCountForWeek(ctx)

			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d sessions this week\n", done, goal)
			if last := b.GetLastSessionEndTime(ctx); last != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Last session ended %s\n", last)
			}
			return nil
		}),
	}
}
