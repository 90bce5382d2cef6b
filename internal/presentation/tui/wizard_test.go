package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/workflows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definition(t *testing.T, id string) *workflows.Definition {
	t.Helper()
	cat, err := workflows.Default(workflows.Env{TaxRate: 0.18})
	require.NoError(t, err)
	def, err := cat.Get(id)
	require.NoError(t, err)
	return def
}

func TestRunner_UserProvisioning(t *testing.T) {
	def := definition(t, "user_provisioning")
	ctrl, err := def.NewController(nil)
	require.NoError(t, err)

	var committed domain.Values
	attempts := 0
	commit := func(_ context.Context, v domain.Values) error {
		attempts++
		if attempts == 1 {
			return errors.New("directory offline")
		}
		committed = v
		return nil
	}

	input := strings.Join([]string{
		"Ada", "Lovelace", "bad", // step 1, invalid e-mail
		"", "", "ada@example.com", // step 1 again
		"", "", // step 2: keep role and department
		"y", // retry after the failed commit
	}, "\n") + "\n"
	var out bytes.Buffer

	inst, err := NewRunner(def, ctrl, commit, strings.NewReader(input), &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseSubmitted, inst.Phase)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "ada.lovelace", committed["username"])
	assert.Equal(t, "Ada Lovelace", committed["display_name"])
	assert.Equal(t, "viewer", committed["role"])

	text := out.String()
	assert.Contains(t, text, "_Step 1 of 2: Person_")
	assert.Contains(t, text, "display_name = Ada Lovelace")
	assert.Contains(t, text, "! email: must be a valid email address")
	assert.Contains(t, text, "directory offline")
	assert.Contains(t, text, "User provisioning submitted.")
}

func TestRunner_Commands(t *testing.T) {
	def := definition(t, "user_provisioning")

	t.Run("Cancel", func(t *testing.T) {
		ctrl, err := def.NewController(nil)
		require.NoError(t, err)
		_, err = NewRunner(def, ctrl, nil, strings.NewReader("Ada\n:cancel\n"), &bytes.Buffer{}).Run(context.Background())
		assert.ErrorIs(t, err, ErrAborted)
		assert.False(t, ctrl.Active())
	})

	t.Run("End Of Input", func(t *testing.T) {
		ctrl, err := def.NewController(nil)
		require.NoError(t, err)
		_, err = NewRunner(def, ctrl, nil, strings.NewReader("Ada\n"), &bytes.Buffer{}).Run(context.Background())
		assert.ErrorIs(t, err, ErrAborted)
	})

	t.Run("Reset Clears Values", func(t *testing.T) {
		ctrl, err := def.NewController(nil)
		require.NoError(t, err)
		var out bytes.Buffer
		_, err = NewRunner(def, ctrl, nil, strings.NewReader("Ada\n:reset\n"), &out).Run(context.Background())
		assert.ErrorIs(t, err, ErrAborted)
		assert.Nil(t, ctrl.Snapshot().Values["first_name"])
		assert.Equal(t, 2, strings.Count(out.String(), "_Step 1 of 2: Person_"))
	})

	t.Run("Invalid Number Is Reprompted", func(t *testing.T) {
		def := definition(t, "purchase_order")
		ctrl, err := def.NewController(nil)
		require.NoError(t, err)
		var out bytes.Buffer
		_, err = NewRunner(def, ctrl, nil, strings.NewReader("ACME\n2026-03-01\n[oops\n"), &out).Run(context.Background())
		assert.ErrorIs(t, err, ErrAborted)
		assert.Contains(t, out.String(), "Items expects JSON")
		assert.Equal(t, 1, ctrl.Snapshot().StepIndex)
	})
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(workflows.FieldSpec{Name: "qty", Type: "positive"}, "2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = ParseValue(workflows.FieldSpec{Name: "qty", Type: "?int"}, "two")
	assert.Error(t, err)

	v, err = ParseValue(workflows.FieldSpec{Name: "items", Type: "[{qty:positive}]"}, `[{"qty": 1}]`)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"qty": 1.0}}, v)

	v, err = ParseValue(workflows.FieldSpec{Name: "tag", Type: "string"}, "1002")
	require.NoError(t, err)
	assert.Equal(t, "1002", v)
}

func TestStepMarkdown(t *testing.T) {
	def := definition(t, "purchase_order")
	inst := domain.NewWorkflowInstance(def.ID, len(def.Steps), domain.Values{"subtotal": 250.0, "items": []any{"x|y"}})
	inst.StepIndex = 1
	inst.Errors = domain.FieldErrors{"total": "must be greater than zero"}
	inst.Phase = domain.PhaseFailed
	inst.LastError = "timeout"

	md := StepMarkdown(def, inst)
	assert.Contains(t, md, "# Purchase order")
	assert.Contains(t, md, "_Step 2 of 3: Line items_")
	assert.Contains(t, md, "| Subtotal _(computed)_ | 250 |")
	assert.Contains(t, md, `["x\|y"]`)
	assert.Contains(t, md, "> **total**: must be greater than zero")
	assert.Contains(t, md, "**Submission failed:** timeout")
}
