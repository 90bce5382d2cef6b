/*
Package ports defines the driven ports (interfaces) of the assetflow controllers.

These interfaces decouple the control logic from the backend, the user
interface and the hosting process, allowing the same wizards and registries to
run against an HTTP API, an in-memory backend in tests, or a Redis-backed
session store across replicas.

# Key Interfaces

  - DataAPIClient: request/response functions per resource type, always
    returning bare values (envelopes are unwrapped by the adapter).
  - NotificationSink: fire-and-forget user notifications.
  - CommitFunc / FetchFunc: per-workflow commit and per-registry fetch.
  - InstanceStore: keeps wizard snapshots between requests of a session.
  - SessionLocker: serializes access to a session across replicas.
*/
package ports
