package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"textdesk-backend/internal/i18n"
	"textdesk-backend/internal/prompts"
)

var templatesLang string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Validate the prompt catalog and print it",
	Long: `Loads the localization catalogs, validates every prompt template against
them and prints the resolved instructions for one language.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := i18n.Load()
		if err != nil {
			return fmt.Errorf("load localization catalogs: %w", err)
		}
		templates, err := prompts.NewDefault(catalog)
		if err != nil {
			return fmt.Errorf("prompt catalog is invalid: %w", err)
		}
		return printTemplates(cmd.OutOrStdout(), templates, catalog.Normalize(templatesLang))
	},
}

func init() {
	templatesCmd.Flags().StringVarP(&templatesLang, "lang", "l", "en", "language to resolve instructions in")
}

func printTemplates(w io.Writer, templates *prompts.Catalog, lang string) error {
	views := templates.Localized(lang)
	for i, t := range templates.Templates() {
		label := views[i].Label
		if !t.IsMenu() {
			instruction, err := templates.Resolve(t.ID, "", lang)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%-12s %s\n             %s\n", t.ID, label, instruction)
			continue
		}

		fmt.Fprintf(w, "%-12s %s\n", t.ID, label)
		for j, child := range t.Children {
			instruction, err := templates.Resolve(t.ID, child.ID, lang)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %-10s %s\n             %s\n", child.ID, views[i].Children[j].Label, instruction)
		}
	}
	return nil
}
