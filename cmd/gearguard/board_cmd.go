package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"gearguard/internal/core/domain"
	"gearguard/internal/core/workflow"
	"gearguard/internal/tui"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login --username <name> --password <password>",
		Short: "Log in and print the token to export as GEARGUARD_TOKEN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			session, err := a.newAPI(a.cfg).Login(cmd.Context(), username, password)
			if err != nil {
				return errors.Wrap(err, "login")
			}
			fmt.Fprintf(a.errOut, "Logged in as %s (%s)\n", session.User.Username, session.User.Role)
			fmt.Fprintf(a.out, "export GEARGUARD_TOKEN=%s\n", session.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newBoardCmd(a *app) *cobra.Command {
	var equipmentID uint

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive kanban board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			me, err := api.Me(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "who am I")
			}
			var opts []workflow.Option
			if equipmentID > 0 {
				opts = append(opts, workflow.WithEquipmentFilter(equipmentID))
			}
			return tui.Run(cmd.Context(), api, me.Viewer(), a.logger, opts...)
		},
	}
	cmd.Flags().UintVar(&equipmentID, "equipment", 0, "only show requests for this equipment")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var equipmentID uint

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the board, or one equipment's requests with --equipment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			var filter workflow.ListFilter
			if equipmentID > 0 {
				filter.EquipmentID = &equipmentID
			}
			listing, err := api.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if listing.Grouped == nil {
				printRequests(a.out, listing.Flat)
				return nil
			}
			board, _ := workflow.Normalize(*listing)
			for _, stage := range domain.Stages {
				fmt.Fprintf(a.out, "== %s (%d)\n", stage, len(board[stage]))
				printRequests(a.out, board[stage])
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&equipmentID, "equipment", 0, "equipment ID")
	return cmd
}

func newCalendarCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print scheduled preventive work by day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			now := time.Now()
			start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
			end := start.AddDate(0, 1, -1)
			if from != "" {
				if start, err = time.ParseInLocation(dateLayout, from, time.Local); err != nil {
					return errors.Wrap(err, "--from")
				}
			}
			if to != "" {
				if end, err = time.ParseInLocation(dateLayout, to, time.Local); err != nil {
					return errors.Wrap(err, "--to")
				}
			}

			days, err := api.Calendar(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(days))
			for day := range days {
				keys = append(keys, day)
			}
			sort.Strings(keys)
			for _, day := range keys {
				fmt.Fprintf(a.out, "== %s\n", day)
				printRequests(a.out, days[day])
			}
			if len(keys) == 0 {
				fmt.Fprintln(a.out, "Nothing scheduled")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD), default start of this month")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD), default end of this month")
	return cmd
}

func newTechniciansCmd(a *app) *cobra.Command {
	var teamID uint

	cmd := &cobra.Command{
		Use:   "technicians",
		Short: "List technicians available for assignment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			var team *uint
			if teamID > 0 {
				team = &teamID
			}
			techs, err := api.AvailableTechnicians(cmd.Context(), team)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tOPEN\tTEAMS")
			for _, t := range techs {
				names := make([]string, len(t.Teams))
				for i, tm := range t.Teams {
					names[i] = tm.Name
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", t.ID, t.DisplayName(), t.Load, strings.Join(names, ", "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().UintVar(&teamID, "team", 0, "only technicians of this team")
	return cmd
}

func printRequests(out io.Writer, reqs []domain.MaintenanceRequest) {
	if len(reqs) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTAGE\tTYPE\tSUBJECT\tASSIGNEE\tEQUIPMENT\t")
	for _, r := range reqs {
		assignee := r.AssignedTechnicianName
		if assignee == "" && r.IsAssigned() {
			assignee = fmt.Sprintf("#%d", *r.AssignedTechnicianID)
		}
		subject := r.Subject
		if r.IsOverdue {
			subject = "! " + subject
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", r.ID, r.Stage, r.Type, subject, assignee, r.EquipmentName)
	}
	_ = w.Flush()
}
