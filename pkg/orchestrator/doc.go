/*
Package orchestrator turns user intents into requests to the semantics service and
applies the responses to views.

It owns three protocols:

  - Dirty-tracking refresh: Elaborate only talks to the service when the view is dirty,
    and only clears the flag when the result still matches the view's text and settings.
  - Interactive stepping: Step opens a step tree, StepExpand grows it one branch point
    at a time through the pure steptree.Expand.
  - Failure handling: any transport failure disables auto-refresh and is reported once.
    Nothing is retried.

Requests run on the caller's goroutine. Callers that need a responsive front end run
them in their own goroutines; the BusyGuard reports whether any request is in flight.
*/
package orchestrator
