package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gearguard/internal/core/domain"
	"gearguard/internal/core/workflow"
	"gearguard/internal/pkg/validate"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		draft                           domain.RequestDraft
		reqType, scheduled              string
		equipmentID, teamID, workCenter uint
	)

	cmd := &cobra.Command{
		Use:   "create --subject <text> [--type CORRECTIVE|PREVENTIVE]",
		Short: "File a new maintenance request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft.Subject = strings.TrimSpace(draft.Subject)
			draft.Type = domain.RequestType(strings.ToUpper(reqType))
			if equipmentID > 0 {
				draft.EquipmentID = &equipmentID
			}
			if teamID > 0 {
				draft.TeamID = &teamID
			}
			if workCenter > 0 {
				draft.WorkCenterID = &workCenter
			}
			if scheduled != "" {
				day, err := time.ParseInLocation(dateLayout, scheduled, time.Local)
				if err != nil {
					return errors.Wrap(err, "--scheduled")
				}
				draft.ScheduledDate = &day
			}
			if err := validate.Struct(draft); err != nil {
				return err
			}
			if draft.Type == domain.RequestTypePreventive && draft.ScheduledDate == nil {
				return errors.New("--scheduled is required for PREVENTIVE requests")
			}

			api, err := a.api()
			if err != nil {
				return err
			}
			created, err := api.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created %s (%s)\n", created.ID, created.Stage)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Subject, "subject", "", "short description of the problem")
	cmd.Flags().StringVar(&draft.Description, "description", "", "details")
	cmd.Flags().StringVar(&reqType, "type", string(domain.RequestTypeCorrective), "CORRECTIVE or PREVENTIVE")
	cmd.Flags().StringVar(&scheduled, "scheduled", "", "scheduled day (YYYY-MM-DD)")
	cmd.Flags().UintVar(&equipmentID, "equipment", 0, "equipment ID")
	cmd.Flags().UintVar(&teamID, "team", 0, "team ID, defaults to the equipment's team")
	cmd.Flags().UintVar(&workCenter, "work-center", 0, "work center ID")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move a request to another stage, as a drag on the board would",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseStage(args[1])
			if err != nil {
				return err
			}
			ctrl, err := a.controller(cmd.Context())
			if err != nil {
				return err
			}
			current, ok := ctrl.Board().Find(args[0])
			if !ok {
				return errors.Errorf("request %s is not on the board", args[0])
			}

			result, err := ctrl.Move(cmd.Context(), args[0], to)
			if err != nil {
				return err
			}
			if result == workflow.MoveIgnored {
				return errors.Errorf("cannot move %s from %s to %s", args[0], current.Stage, to)
			}
			fmt.Fprintf(a.out, "%s: %s -> %s\n", args[0], current.Stage, to)
			return nil
		},
	}
}

func newAssignCmd(a *app) *cobra.Command {
	var techID uint

	cmd := &cobra.Command{
		Use:   "assign <id> [--tech N]",
		Short: "Assign a technician; without --tech you take the request yourself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl, err := a.controller(ctx)
			if err != nil {
				return err
			}

			req := workflow.ActionRequest{Action: workflow.ActionAssignToMe}
			if techID > 0 {
				req.TechnicianID = &techID
				req.Action = workflow.ActionEditAssignment
				if caps, ok := ctrl.Capabilities(args[0]); ok && caps.Has(workflow.ActionAssign) {
					req.Action = workflow.ActionAssign
				}
			}
			return a.perform(ctx, ctrl, args[0], req)
		},
	}
	cmd.Flags().UintVar(&techID, "tech", 0, "technician user ID")
	return cmd
}

func newStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start work on a request assigned to you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(cmd.Context())
			if err != nil {
				return err
			}
			return a.perform(cmd.Context(), ctrl, args[0], workflow.ActionRequest{Action: workflow.ActionStartWork})
		},
	}
}

func newRepairCmd(a *app) *cobra.Command {
	var hours float64

	cmd := &cobra.Command{
		Use:   "repair <id> [--hours H]",
		Short: "Mark a request repaired; without --hours the time since start is used",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hours < 0 {
				return errors.New("--hours must not be negative")
			}
			ctrl, err := a.controller(cmd.Context())
			if err != nil {
				return err
			}
			return a.perform(cmd.Context(), ctrl, args[0], workflow.ActionRequest{
				Action:        workflow.ActionMarkRepaired,
				DurationHours: hours,
			})
		},
	}
	cmd.Flags().Float64Var(&hours, "hours", workflow.AutoDuration, "hours spent")
	cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newScrapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrap <id>",
		Short: "Scrap a request and its equipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(cmd.Context())
			if err != nil {
				return err
			}
			return a.perform(cmd.Context(), ctrl, args[0], workflow.ActionRequest{Action: workflow.ActionMarkScrap})
		},
	}
	cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// perform runs a card action and prints where the request ended up
func (a *app) perform(ctx context.Context, ctrl *workflow.Controller, id string, req workflow.ActionRequest) error {
	caps, ok := ctrl.Capabilities(id)
	if !ok {
		return errors.Errorf("request %s is not on the board", id)
	}
	if !caps.Has(req.Action) {
		return errors.Errorf("%s is not available for request %s", req.Action.Label(), id)
	}

	called, err := ctrl.Perform(ctx, id, req)
	if err != nil {
		return err
	}
	if !called {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if r, ok := ctrl.Board().Find(id); ok {
		assignee := "unassigned"
		if r.AssignedTechnicianName != "" {
			assignee = r.AssignedTechnicianName
		} else if r.IsAssigned() {
			assignee = fmt.Sprintf("#%d", *r.AssignedTechnicianID)
		}
		fmt.Fprintf(a.out, "%s: %s, %s\n", id, r.Stage, assignee)
	}
	return nil
}
