package tui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/workflows"
)

// StepMarkdown describes the current step of inst as markdown: a header with
// the progress, the step's fields with their values and any inline errors.
func StepMarkdown(def *workflows.Definition, inst *domain.WorkflowInstance) string {
	step := def.Steps[inst.StepIndex]
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", def.Title)
	title := step.Title
	if title == "" {
		title = step.ID
	}
	fmt.Fprintf(&sb, "_Step %d of %d: %s_\n\n", inst.StepIndex+1, len(def.Steps), title)
	if step.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", step.Description)
	}

	sb.WriteString("| Field | Value |\n|---|---|\n")
	for _, name := range step.Fields {
		f, _ := def.Field(name)
		label := f.Title()
		if label == "" {
			label = name
		}
		if f.Derived {
			label += " _(computed)_"
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", label, escapeCell(FormatValue(inst.Values[name])))
	}

	if len(inst.Errors) > 0 {
		sb.WriteString("\n")
		for _, name := range inst.Errors.Fields() {
			fmt.Fprintf(&sb, "> **%s**: %s\n", name, inst.Errors[name])
		}
	}
	if inst.Phase == domain.PhaseFailed && inst.LastError != "" {
		fmt.Fprintf(&sb, "\n**Submission failed:** %s\n", inst.LastError)
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// FormatValue renders a field value on one line.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// ParseValue converts raw terminal input into a value of the field's type.
// Lists and records are entered as JSON.
func ParseValue(f workflows.FieldSpec, raw string) (any, error) {
	typ := strings.TrimPrefix(strings.TrimSpace(f.Type), "?")
	switch {
	case strings.HasPrefix(typ, "[") || strings.HasPrefix(typ, "{"):
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%s expects JSON: %w", f.Title(), err)
		}
		return v, nil
	case typ == "int" || typ == "float" || typ == "positive":
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number", f.Title())
		}
		return n, nil
	case typ == "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false", f.Title())
		}
		return b, nil
	default:
		return raw, nil
	}
}
