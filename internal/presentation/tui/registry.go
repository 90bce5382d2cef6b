package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/assetflow/pkg/inventory"
)

// RegistryMarkdown renders one page of a registry query as a markdown table.
// columns defaults to the id followed by the facets of the result.
func RegistryMarkdown(res inventory.Result, columns []string) string {
	if len(columns) == 0 {
		columns = append([]string{"id"}, facetNames(res)...)
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", res.Collection)
	pages := max(res.PageCount, 1)
	fmt.Fprintf(&sb, "_Page %d of %d, %d of %d matched_\n\n", res.Page+1, pages, res.Matched, res.Total)

	if len(res.Items) == 0 {
		sb.WriteString("No entries.\n")
	} else {
		sb.WriteString("| " + strings.Join(columns, " | ") + " |\n")
		sb.WriteString("|" + strings.Repeat("---|", len(columns)) + "\n")
		for _, item := range res.Items {
			cells := make([]string, len(columns))
			for i, col := range columns {
				cells[i] = escapeCell(FormatValue(item[col]))
			}
			sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}

	for _, facet := range facetNames(res) {
		counts := res.Facets[facet]
		values := make([]string, 0, len(counts))
		for v := range counts {
			values = append(values, v)
		}
		sort.Strings(values)
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprintf("%s (%d)", v, counts[v])
		}
		fmt.Fprintf(&sb, "\n**%s**: %s\n", facet, strings.Join(parts, ", "))
	}
	if len(res.Actions) > 0 {
		fmt.Fprintf(&sb, "\nActions: %s\n", strings.Join(res.Actions, ", "))
	}
	return sb.String()
}

func facetNames(res inventory.Result) []string {
	names := make([]string, 0, len(res.Facets))
	for name := range res.Facets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
