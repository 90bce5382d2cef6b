package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/assetflow/internal/presentation/tui"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/spf13/cobra"
)

var registryCmd = &cobra.Command{
	Use:   "registry <name>",
	Short: "Query a registry, or apply a bulk action to it",
	Long: `Lists one page of a registry (assets, users, transactions, documents,
audit_logs). Filters are given as facet=value; repeat --filter to combine facets.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		console, _, err := openConsole(cmd)
		if err != nil {
			return err
		}
		defer console.Close()

		view, ok := console.View(args[0])
		if !ok {
			return fmt.Errorf("unknown registry %q", args[0])
		}
		ctx := cmd.Context()

		if action, _ := cmd.Flags().GetString("apply"); action != "" {
			ids, _ := cmd.Flags().GetStringSlice("ids")
			if len(ids) == 0 {
				return fmt.Errorf("--apply needs --ids")
			}
			if err := view.Apply(ctx, action, ids); err != nil {
				return err
			}
		}

		q, err := queryFromFlags(cmd)
		if err != nil {
			return err
		}
		res, err := view.Query(ctx, q)
		if err != nil {
			return err
		}
		columns, _ := cmd.Flags().GetStringSlice("columns")
		return render(cmd.OutOrStdout(), tui.RegistryMarkdown(res, columns))
	},
}

func queryFromFlags(cmd *cobra.Command) (domain.ListQuery, error) {
	search, _ := cmd.Flags().GetString("search")
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("page-size")
	filters, _ := cmd.Flags().GetStringArray("filter")

	q := domain.ListQuery{Search: search, Page: max(page-1, 0), PageSize: size, Filters: map[string][]string{}}
	for _, f := range filters {
		facet, value, ok := strings.Cut(f, "=")
		if !ok || facet == "" {
			return q, fmt.Errorf("filter %q is not facet=value", f)
		}
		for _, v := range strings.Split(value, ",") {
			q.Filters[facet] = append(q.Filters[facet], strings.TrimSpace(v))
		}
	}
	return q, nil
}

func render(out io.Writer, markdown string) error {
	renderer := tui.Plain
	if f, ok := out.(*os.File); ok {
		renderer = tui.RendererFor(f)
	}
	text, err := renderer(markdown)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, text)
	return err
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.Flags().StringP("search", "s", "", "Free-text search")
	registryCmd.Flags().StringArrayP("filter", "f", nil, "Facet filter as facet=value[,value]")
	registryCmd.Flags().IntP("page", "p", 1, "Page number, starting at 1")
	registryCmd.Flags().Int("page-size", 0, "Page size (default list.page_size)")
	registryCmd.Flags().StringSlice("columns", nil, "Columns to show (default id and facets)")
	registryCmd.Flags().String("apply", "", "Bulk action to apply before listing")
	registryCmd.Flags().StringSlice("ids", nil, "Entity ids the bulk action applies to")
}
