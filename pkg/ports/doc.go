/*
Package ports defines the driven ports (interfaces) of the cerberus client.

These interfaces decouple the orchestration core from the transports and storage
backends, so the same core runs against the real service, an httptest fake or an
in-memory stub.

# Key Interfaces

  - SemanticsService: sends one request to the remote semantics service.
  - SourceFetcher: fetches a named source file (bundled example, fixed link target).
  - SnapshotStore: persists view snapshots (saved sessions, short share links).
*/
package ports
