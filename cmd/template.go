package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/store"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage canned response templates",
}

var templateAddCmd = &cobra.Command{
	Use:   "add <name> <content>",
	Short: "Add a response template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keywords, _ := cmd.Flags().GetStringSlice("keywords")
		category, _ := cmd.Flags().GetString("category")
		inactive, _ := cmd.Flags().GetBool("inactive")
		if len(keywords) == 0 {
			return errors.New("at least one --keywords value is required")
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := st.UserRepo().CurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("load learner: %w", err)
		}

		rec, err := store.TemplateRepo(st.EntityRepo()).Create(cmd.Context(), u.Email, store.ResponseTemplate{
			Name:     args[0],
			Keywords: keywords,
			Content:  args[1],
			Active:   !inactive,
			Category: category,
		})
		if err != nil {
			return fmt.Errorf("save template: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added template %s (%s)\n", rec.Value.Name, rec.ID)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List response templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := store.TemplateRepo(st.EntityRepo()).List(cmd.Context(), store.ListOpts{Asc: true})
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No templates.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tACTIVE\tKEYWORDS\tCATEGORY")
		for _, r := range recs {
			t := r.Value
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n", r.ID, t.Name, t.Active, strings.Join(t.Keywords, ","), t.Category)
		}
		return w.Flush()
	},
}

var templateRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a response template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := store.TemplateRepo(st.EntityRepo()).Delete(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("template %s not found", args[0])
			}
			return fmt.Errorf("delete template: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed template %s\n", args[0])
		return nil
	},
}

func init() {
	templateAddCmd.Flags().StringSliceP("keywords", "k", nil, "Keywords that trigger the template (comma separated)")
	templateAddCmd.Flags().StringP("category", "c", "", "Template category")
	templateAddCmd.Flags().Bool("inactive", false, "Store the template disabled")

	templateCmd.AddCommand(templateAddCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateRmCmd)
}
