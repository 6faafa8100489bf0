package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

var projectDescription string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List, create and inspect projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.Projects.FetchAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("list projects: %s", a.Projects.State().Error)
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), list)
		}
		return writeProjects(cmd.OutOrStdout(), list)
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a project",
	Example: `  pmctl projects create "Website relaunch" --description "Q3 redesign"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Projects.Create(cmd.Context(), model.ProjectInput{Name: args[0], Description: projectDescription})
		if err != nil {
			return fmt.Errorf("create project: %s", a.Projects.State().Error)
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created project %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project and its milestones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Projects.FetchDetail(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("show project: %s", a.Projects.State().Error)
		}
		ms := a.Milestones.Milestones()
		if jsonOut {
			p.Milestones = ms
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", p.Name, p.ID)
		if p.Description != "" {
			fmt.Fprintln(cmd.OutOrStdout(), p.Description)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return writeMilestones(cmd.OutOrStdout(), ms)
	},
}

func init() {
	projectsCreateCmd.Flags().StringVar(&projectDescription, "description", "", "project description")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsShowCmd)
}

func writeProjects(w io.Writer, list []model.Project) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Status)
	}
	return tw.Flush()
}

func writeMilestones(w io.Writer, list []model.Milestone) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no milestones")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tID\tNAME\tDUE\tSTATUS")
	for _, m := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", m.Order, m.ID, m.Name, m.DueDate, m.Status)
	}
	return tw.Flush()
}
