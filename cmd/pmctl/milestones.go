package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnassefatheeth/pm-f-d/internal/form"
	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

var (
	milestoneDescription string
	milestoneDue         string

	patchName        string
	patchDescription string
	patchDue         string
	patchOrder       int
	patchStatus      string
)

var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "Create, edit and reorder milestones of a project",
}

var milestonesCreateCmd = &cobra.Command{
	Use:     "create <project-id> <name>",
	Short:   "Create a milestone",
	Example: `  pmctl milestones create 66a1f0 "Beta release" --due 2026-09-30`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		projectID := args[0]
		if _, err := a.Projects.FetchDetail(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load project: %s", a.Projects.State().Error)
		}

		f := a.NewMilestoneForm(projectID, nil)
		f.Open()
		f.SetName(args[1])
		f.SetDescription(milestoneDescription)
		f.SetDueDate(milestoneDue)

		m, err := f.Submit(cmd.Context())
		if err != nil {
			if errors.Is(err, form.ErrBusy) {
				return err
			}
			return errors.New(f.State().Error)
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), m)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created milestone %s (%s), due %s\n\n", m.Name, m.ID, m.DueDate)
		return writeMilestones(cmd.OutOrStdout(), a.Milestones.Milestones())
	},
}

var milestonesUpdateCmd = &cobra.Command{
	Use:   "update <project-id> <milestone-id>",
	Short: "Change fields of a milestone",
	Long:  "Only flags given on the command line are sent.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return errors.New("nothing to update: pass at least one of --name, --description, --due, --order, --status")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		projectID := args[0]
		if _, err := a.Projects.FetchDetail(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load project: %s", a.Projects.State().Error)
		}
		m, err := a.Milestones.Update(cmd.Context(), projectID, args[1], patch)
		if err != nil {
			return fmt.Errorf("update milestone: %s", a.Milestones.State().Error)
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), m)
		}
		return writeMilestones(cmd.OutOrStdout(), a.Milestones.Milestones())
	},
}

var milestonesReorderCmd = &cobra.Command{
	Use:     "reorder <project-id> <milestone-id>=<order>...",
	Short:   "Assign new display orders",
	Example: `  pmctl milestones reorder 66a1f0 m1=2 m2=1`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := parseOrderEntries(args[1:])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		projectID := args[0]
		if _, err := a.Projects.FetchDetail(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load project: %s", a.Projects.State().Error)
		}
		if err := a.Milestones.Reorder(cmd.Context(), projectID, entries); err != nil {
			return fmt.Errorf("reorder milestones: %s", a.Milestones.State().Error)
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), a.Milestones.Milestones())
		}
		return writeMilestones(cmd.OutOrStdout(), a.Milestones.Milestones())
	},
}

func init() {
	milestonesCreateCmd.Flags().StringVar(&milestoneDescription, "description", "", "milestone description")
	milestonesCreateCmd.Flags().StringVar(&milestoneDue, "due", "", "due date, YYYY-MM-DD")

	f := milestonesUpdateCmd.Flags()
	f.StringVar(&patchName, "name", "", "new name")
	f.StringVar(&patchDescription, "description", "", "new description")
	f.StringVar(&patchDue, "due", "", "new due date, YYYY-MM-DD")
	f.IntVar(&patchOrder, "order", 0, "new display order")
	f.StringVar(&patchStatus, "status", "", "pending, in_progress or completed")

	milestonesCmd.AddCommand(milestonesCreateCmd)
	milestonesCmd.AddCommand(milestonesUpdateCmd)
	milestonesCmd.AddCommand(milestonesReorderCmd)
}

// patchFromFlags sets only the fields whose flags were given.
func patchFromFlags(cmd *cobra.Command) (model.MilestonePatch, error) {
	var patch model.MilestonePatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		patch.Name = &patchName
	}
	if flags.Changed("description") {
		patch.Description = &patchDescription
	}
	if flags.Changed("due") {
		d, err := model.ParseDate(patchDue)
		if err != nil {
			return model.MilestonePatch{}, fmt.Errorf("--due: %w", err)
		}
		patch.DueDate = &d
	}
	if flags.Changed("order") {
		patch.Order = &patchOrder
	}
	if flags.Changed("status") {
		patch.Status = &patchStatus
	}
	return patch, nil
}

// parseOrderEntries reads "id=order" arguments.
func parseOrderEntries(args []string) ([]model.OrderEntry, error) {
	entries := make([]model.OrderEntry, 0, len(args))
	for _, arg := range args {
		id, raw, ok := strings.Cut(arg, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid entry %q: want <milestone-id>=<order>", arg)
		}
		order, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid order in %q: %w", arg, err)
		}
		entries = append(entries, model.OrderEntry{ID: id, Order: order})
	}
	return entries, nil
}
