package derive_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/assetflow/pkg/derive"
	"github.com/aretw0/assetflow/pkg/domain"
)

type lineItem struct {
	Quantity  float64
	UnitPrice float64
}

func orderRules(rate float64) []domain.FieldDependencyRule {
	return []domain.FieldDependencyRule{
		{
			Name:    "subtotal",
			Trigger: "items",
			Targets: []string{"subtotal"},
			Compute: func(v domain.Values) domain.Values {
				items, _ := v["items"].([]lineItem)
				sum := 0.0
				for _, it := range items {
					sum += it.Quantity * it.UnitPrice
				}
				return domain.Values{"subtotal": sum}
			},
		},
		{
			Name:    "tax",
			Trigger: "subtotal",
			Targets: []string{"tax"},
			Compute: func(v domain.Values) domain.Values {
				sub, _ := v["subtotal"].(float64)
				return domain.Values{"tax": math.Round(sub*rate*100) / 100}
			},
		},
		{
			Name:    "total",
			Trigger: "tax",
			Targets: []string{"total"},
			Compute: func(v domain.Values) domain.Values {
				sub, _ := v["subtotal"].(float64)
				tax, _ := v["tax"].(float64)
				return domain.Values{"total": sub + tax}
			},
		},
	}
}

func TestEngine_TransitiveRecompute(t *testing.T) {
	eng, err := derive.New(orderRules(0.18)...)
	require.NoError(t, err)

	values := domain.Values{
		"items": []lineItem{{Quantity: 2, UnitPrice: 100}, {Quantity: 1, UnitPrice: 50}},
	}

	got := eng.Recompute("items", values)
	assert.Equal(t, domain.Values{"subtotal": 250.0, "tax": 45.0, "total": 295.0}, got)

	// Input is never mutated; the caller merges the update atomically.
	assert.NotContains(t, values, "subtotal")
}

func TestEngine_RegistrationOrderDoesNotMatter(t *testing.T) {
	rules := orderRules(0.18)
	// Register dependents before their producers.
	eng, err := derive.New(rules[2], rules[1], rules[0])
	require.NoError(t, err)

	got := eng.Recompute("items", domain.Values{
		"items": []lineItem{{Quantity: 2, UnitPrice: 100}, {Quantity: 1, UnitPrice: 50}},
		// Stale derived values from an earlier edit must not leak into the result.
		"subtotal": 10.0,
		"tax":      1.8,
	})
	assert.Equal(t, 295.0, got["total"])
	assert.Equal(t, 45.0, got["tax"])
}

func TestEngine_Idempotent(t *testing.T) {
	eng, err := derive.New(orderRules(0.18)...)
	require.NoError(t, err)

	values := domain.Values{"items": []lineItem{{Quantity: 3, UnitPrice: 9.99}}}
	first := eng.Recompute("items", values)

	// Feed the derived values back in, as a wizard would after merging.
	merged := values.Clone()
	for k, v := range first {
		merged[k] = v
	}
	second := eng.Recompute("items", merged)

	assert.Equal(t, first, second)
}

func TestEngine_MultipleTargets(t *testing.T) {
	holders := map[string][2]string{
		"AST-1001": {"HQ Floor 2", "ada"},
		"AST-1002": {"Warehouse", "grace"},
	}
	eng, err := derive.New(domain.FieldDependencyRule{
		Trigger: "asset_id",
		Targets: []string{"from_location", "from_user"},
		Compute: func(v domain.Values) domain.Values {
			h, ok := holders[v.String("asset_id")]
			if !ok {
				return nil
			}
			return domain.Values{"from_location": h[0], "from_user": h[1]}
		},
	})
	require.NoError(t, err)

	got := eng.Recompute("asset_id", domain.Values{"asset_id": "AST-1002", "from_location": "edited by hand"})
	assert.Equal(t, domain.Values{"from_location": "Warehouse", "from_user": "grace"}, got)

	t.Run("Omitted Targets Are Cleared", func(t *testing.T) {
		got := eng.Recompute("asset_id", domain.Values{"asset_id": "AST-9999"})
		assert.Equal(t, domain.Values{"from_location": nil, "from_user": nil}, got)
	})
}

func TestEngine_Diamond(t *testing.T) {
	var calls []string
	rule := func(name, trigger string, targets ...string) domain.FieldDependencyRule {
		return domain.FieldDependencyRule{
			Name: name, Trigger: trigger, Targets: targets,
			Compute: func(v domain.Values) domain.Values {
				calls = append(calls, name)
				out := domain.Values{}
				for _, t := range targets {
					out[t] = name
				}
				return out
			},
		}
	}

	eng, err := derive.New(
		rule("d", "c", "e"),
		rule("b", "a", "c"),
		rule("a", "x", "a", "b"),
		rule("c", "b", "c2"),
	)
	require.NoError(t, err)

	got := eng.Recompute("x", domain.Values{})
	// Ready rules run lowest registration index first.
	assert.Equal(t, []string{"a", "b", "d", "c"}, calls)
	assert.Equal(t, domain.Values{"a": "a", "b": "a", "c": "b", "c2": "c", "e": "d"}, got)
}

func TestEngine_UnknownTrigger(t *testing.T) {
	eng, err := derive.New(orderRules(0.18)...)
	require.NoError(t, err)
	assert.Empty(t, eng.Recompute("notes", domain.Values{"notes": "x"}))
}

func TestEngine_CycleRejected(t *testing.T) {
	eng, err := derive.New(orderRules(0.18)...)
	require.NoError(t, err)

	err = eng.Register(domain.FieldDependencyRule{
		Name:    "back-edge",
		Trigger: "total",
		Targets: []string{"items"},
		Compute: func(domain.Values) domain.Values { return nil },
	})
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "back-edge", cfgErr.Rule)
	assert.Equal(t, []string{"total", "items", "subtotal", "tax", "total"}, cfgErr.Cycle)

	// The rejected rule must not be registered.
	assert.Len(t, eng.Rules(), 3)
}

func TestEngine_SelfLoopRejected(t *testing.T) {
	_, err := derive.New(domain.FieldDependencyRule{
		Trigger: "qty",
		Targets: []string{"qty"},
		Compute: func(domain.Values) domain.Values { return nil },
	})
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"qty", "qty"}, cfgErr.Cycle)
}

func TestEngine_MalformedRules(t *testing.T) {
	noop := func(domain.Values) domain.Values { return nil }
	tests := []struct {
		name string
		rule domain.FieldDependencyRule
	}{
		{"No Trigger", domain.FieldDependencyRule{Targets: []string{"a"}, Compute: noop}},
		{"No Targets", domain.FieldDependencyRule{Trigger: "a", Compute: noop}},
		{"No Compute", domain.FieldDependencyRule{Trigger: "a", Targets: []string{"b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, _ := derive.New()
			var cfgErr *domain.ConfigurationError
			assert.ErrorAs(t, eng.Register(tt.rule), &cfgErr)
		})
	}
}

func TestEngine_MustRegisterPanics(t *testing.T) {
	eng, _ := derive.New()
	assert.Panics(t, func() {
		eng.MustRegister(domain.FieldDependencyRule{Trigger: "a", Targets: []string{"a"}, Compute: func(domain.Values) domain.Values { return nil }})
	})
}

func TestEngine_Edges(t *testing.T) {
	eng, err := derive.New(orderRules(0.18)...)
	require.NoError(t, err)
	assert.Equal(t, []derive.Edge{
		{From: "items", To: "subtotal", Rule: "subtotal"},
		{From: "subtotal", To: "tax", Rule: "tax"},
		{From: "tax", To: "total", Rule: "total"},
	}, eng.Edges())
}
