package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/docimport"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/render"
	"github.com/spf13/cobra"
)

func newDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"docs"},
		Short:   "Manage documents",
	}
	cmd.AddCommand(newDocListCmd())
	cmd.AddCommand(newDocShowCmd())
	cmd.AddCommand(newDocAddCmd())
	cmd.AddCommand(newDocImportCmd())
	cmd.AddCommand(newDocRmCmd())
	return cmd
}

func newDocListCmd() *cobra.Command {
	var (
		f      dashboard.Filter
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, func(b *dashboard.Board) error {
				docs := b.ListDocs(f)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), docs)
				}
				if len(docs) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No documents")
					return nil
				}
				for _, d := range docs {
					category := "-"
					if d.Category != nil {
						category = *d.Category
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- #%d %s (%s, %d bytes)\n", d.ID, d.Title, category, len(d.Content))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", "", "Only this category")
	cmd.Flags().StringVar(&f.Search, "search", "", "Case-insensitive text in title or content")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newDocShowCmd() *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print a document's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				d, ok := b.GetDoc(id)
				if !ok {
					return fmt.Errorf("doc %d not found", id)
				}
				out := d.Content
				if html {
					if out, err = render.New(0).HTML(cmd.Context(), d); err != nil {
						return err
					}
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Render markdown to HTML")
	return cmd
}

func newDocAddCmd() *cobra.Command {
	var (
		file     string
		content  string
		category string
	)
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a document from --content or --file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				content = string(b)
			}
			in := dashboard.DocInput{Title: args[0], Content: content, Category: optionalFlag(cmd, "category", category)}
			return withBoard(cmd, func(b *dashboard.Board) error {
				d, err := b.CreateDoc(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created doc %d\n", d.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read content from this file")
	cmd.Flags().StringVar(&content, "content", "", "Document content")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.MarkFlagsMutuallyExclusive("file", "content")
	return writes(cmd)
}

func newDocImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [DIR]",
		Short: "Import .md, .txt and .json files from a directory (default: <home>/workspace)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.WorkspaceDir(config.MustHomeFrom(cmd.Context()))
			if len(args) == 1 {
				dir = args[0]
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				docs, err := docimport.Import(cmd.Context(), b, dir)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d documents from %s\n", len(docs), dir)
				return nil
			})
		},
	}
	return writes(cmd)
}

func newDocRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withBoard(cmd, func(b *dashboard.Board) error {
				ok, err := b.DeleteDoc(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("doc %d not found", id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted doc %d\n", id)
				return nil
			})
		},
	}
	return writes(cmd)
}
