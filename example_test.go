package assetflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/assetflow"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/inventory"
	"github.com/aretw0/assetflow/pkg/workflows"
)

// Derived fields are recomputed as soon as their trigger changes.
func ExampleMemoryBackend_wizard() {
	cat, err := workflows.Default(workflows.Env{TaxRate: 0.18})
	if err != nil {
		log.Fatal(err)
	}
	def, err := cat.Get("purchase_order")
	if err != nil {
		log.Fatal(err)
	}
	ctrl, err := def.NewController(nil)
	if err != nil {
		log.Fatal(err)
	}

	ctrl.UpdateField("vendor", "ACME")
	ctrl.UpdateField("order_date", "2026-03-01")
	if err := ctrl.Next(); err != nil {
		log.Fatal(err)
	}
	ctrl.UpdateField("items", []any{
		map[string]any{"description": "Dock", "qty": 2.0, "price": 100.0},
	})

	v := ctrl.Snapshot().Values
	fmt.Println("subtotal:", v["subtotal"])
	fmt.Println("tax:", v["tax"])
	fmt.Println("total:", v["total"])
	// Output:
	// subtotal: 200
	// tax: 36
	// total: 236
}

// Registries are queried with search, facet filters and pagination.
func ExampleMemoryBackend_registry() {
	backend := assetflow.MemoryBackend()
	assets := inventory.Bind(inventory.Assets, backend.Assets, 10, nil)
	defer assets.Close()

	res, err := assets.Query(context.Background(), domain.ListQuery{
		Filters: map[string][]string{"location": {"HQ-3F"}, "category": {"hardware"}},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d of %d\n", res.Matched, res.Total)
	for _, item := range res.Items {
		fmt.Println(item["asset_tag"], item["name"])
	}
	// Output:
	// 2 of 12
	// AST-1003 MacBook Pro 14
	// AST-1009 iPhone 15
}
