/*
Package assetflow is the control layer of an asset-management console: the
multi-step wizards that create and move assets, and the registries that list,
filter and bulk-edit them.

It is organized around four controllers, each in its own package:

  - wizard: the step state machine of one workflow (navigation, per-step
    validation, a single in-flight submission).
  - derive: the field dependency engine that recomputes derived fields when
    their trigger changes.
  - listview: client-side search, facet filters, pagination and selection over
    a loaded collection.
  - reconcile: optimistic mutations that refetch the authoritative collection
    after every successful write and drop stale responses.

The Console type in this package wires them to a data API (in memory or over
HTTP), a session store (in memory or Redis), Prometheus metrics and the JSON
API served by the assetflow command.

# Usage

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	console, err := assetflow.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer console.Close()

	if err := console.Warmup(ctx); err != nil {
		log.Printf("registries not loaded: %v", err)
	}
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, console.HTTPHandler()))

Wizards can also be driven directly:

	def, _ := console.Catalogue().Get("purchase_order")
	ctrl, _ := def.NewController(nil)
	ctrl.UpdateField("vendor", "ACME")
	if err := ctrl.Next(); err != nil {
		// err is a *domain.ValidationError listing the offending fields
	}
*/
package assetflow
