/*
Package domain contains the core types shared by every layer of the cerberus client.

It defines the wire contract expected from the remote semantics service (requests and
typed responses), the user settings that influence analysis, the snapshot captured by
permalinks and the events emitted when a view changes. The package is kept free of I/O
so adapters and the orchestrator can depend on it without cycles.

# Key Entities

  - Action: the enumerated service action (elaborate, execute:<mode>, step).
  - Settings: process-wide user configuration; AnalysisSettings is the subset that
    invalidates cached results.
  - Request: the single JSON body shape sent for every intent.
  - ElaborationResult, ExecutionResult, StepResult: typed responses per action.
  - Snapshot: the reconstructable state of one view, as stored in a permalink.
*/
package domain
