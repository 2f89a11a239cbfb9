/*
Package steptree implements the interactive execution tree of a view.

The tree is grown lazily: the first step request creates the root and its immediate
branch choices, and every later request expands exactly one node that has not been
expanded yet. Node ids are assigned by the service; the tree only tracks the highest
id seen (the watermark) so each expansion can tell the service where to continue.

Trees are immutable. Open and Expand return new values, which lets the orchestrator
compare-and-swap the tree of a view and drop responses computed against a tree that
was reset in the meantime.
*/
package steptree
