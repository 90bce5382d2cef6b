package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/assetflow/pkg/derive"
	"github.com/aretw0/assetflow/pkg/domain"
)

// Overlay contains runtime state to highlight on the graph.
type Overlay struct {
	StepIndex int
	Phase     domain.Phase
}

// OverlayFrom builds an overlay from an instance snapshot.
func OverlayFrom(inst *domain.WorkflowInstance) *Overlay {
	if inst == nil {
		return nil
	}
	return &Overlay{StepIndex: inst.StepIndex, Phase: inst.Phase}
}

// GenerateMermaid produces a Mermaid flowchart of a workflow.
// Steps form the main chain:
// - Start and submit: ((Circle))
// - Step: [Rectangle] listing its fields
// Dependency rules are drawn in a separate subgraph as field -> field edges
// labelled with the rule name. The overlay marks visited and current steps.
func GenerateMermaid(workflow string, steps []domain.StepSpec, edges []derive.Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	start := sanitizeMermaidID(workflow + "_start")
	submit := sanitizeMermaidID(workflow + "_submit")
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", start, escape(workflow)))

	prev := start
	for i, step := range steps {
		id := stepID(i, step)
		label := escape(stepLabel(step))
		if len(step.Fields) > 0 {
			label += " <br/> " + escape(strings.Join(step.Fields, ", "))
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))
		if i == 0 {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
		} else {
			sb.WriteString(fmt.Sprintf("    %s -- next --> %s\n", prev, id))
			sb.WriteString(fmt.Sprintf("    %s -. back .-> %s\n", id, prev))
		}
		prev = id
	}
	sb.WriteString(fmt.Sprintf("    %s((\"submit\"))\n", submit))
	sb.WriteString(fmt.Sprintf("    %s -- submit --> %s\n", prev, submit))

	if len(edges) > 0 {
		sb.WriteString("\n    subgraph dependencies\n")
		seen := make(map[string]bool)
		for _, e := range edges {
			for _, field := range []string{e.From, e.To} {
				if !seen[field] {
					seen[field] = true
					sb.WriteString(fmt.Sprintf("        %s[/\"%s\"/]\n", fieldID(field), escape(field)))
				}
			}
			sb.WriteString(fmt.Sprintf("        %s -- \"%s\" --> %s\n", fieldID(e.From), escape(e.Rule), fieldID(e.To)))
		}
		sb.WriteString("    end\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")

		for i := 0; i < overlay.StepIndex && i < len(steps); i++ {
			sb.WriteString(fmt.Sprintf("    class %s visited;\n", stepID(i, steps[i])))
		}
		switch {
		case overlay.Phase == domain.PhaseSubmitted:
			if n := len(steps); n > 0 {
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", stepID(n-1, steps[n-1])))
			}
			sb.WriteString(fmt.Sprintf("    class %s current;\n", submit))
		case overlay.StepIndex >= 0 && overlay.StepIndex < len(steps):
			class := "current"
			if overlay.Phase == domain.PhaseFailed {
				class = "failed"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", stepID(overlay.StepIndex, steps[overlay.StepIndex]), class))
		}
	}

	return sb.String()
}

func stepLabel(step domain.StepSpec) string {
	if step.Title != "" {
		return step.Title
	}
	return step.ID
}

func stepID(i int, step domain.StepSpec) string {
	return sanitizeMermaidID(fmt.Sprintf("step%d_%s", i, step.ID))
}

func fieldID(name string) string {
	return "f_" + sanitizeMermaidID(name)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
