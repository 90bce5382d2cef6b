/*
Package domain contains the core models shared by the assetflow controllers.

It defines the workflow instance owned by a wizard, the declarative step and
field-dependency descriptions, the list query and selection vocabulary of the
registries, and the error taxonomy used across the module. This package is
kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - StepSpec: one wizard step (fields + validator).
  - WorkflowInstance: runtime snapshot of a wizard (step, values, errors, phase).
  - FieldDependencyRule: a pure mapping from a trigger field to recomputed targets.
  - ListQuery / Page: the registry query and a page of results.
  - LifecycleHooks: observability callbacks emitted by the controllers.
*/
package domain
