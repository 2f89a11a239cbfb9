/*
Package cerberus is a client for the Cerberus C semantics service.

It keeps a set of editable C programs ("views"), sends them to the service for
elaboration, execution or interactive stepping, and caches what comes back. The
service is stateless: every request carries the full source and settings, and an
interactive step carries the continuation of the node being expanded.

# Concept

A Client wires three parts around a ports.SemanticsService:

  - Session: the views, the active one, and the settings shared by all of them.
  - Orchestrator: builds requests, applies responses to views, and tracks busy state.
  - Permalink codec: turns a view into a URL fragment and back.

Views record whether their cached results are stale ("dirty"). Editing the source or
changing an analysis setting marks them dirty; a successful elaboration of the current
source and settings clears the flag. The AutoRefresher re-elaborates the active view
while it stays dirty.

Interactive sessions are immutable step trees. Expanding a node sends its state to the
service and attaches the returned nodes below it, producing a new tree.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/cerberus"
		httpAdapter "github.com/aretw0/cerberus/pkg/adapters/http"
	)

	func main() {
		ctx := context.Background()
		client := cerberus.New(
			httpAdapter.NewClient("http://localhost:8080"),
			cerberus.WithFetcher(httpAdapter.NewFetcher("http://localhost:8080", nil)),
		)

		// No fragment and no query: the default example is loaded and elaborated.
		v, err := client.OpenURL(ctx, "http://localhost:8080/")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(v.LastResult().PP.Core)

		token, _ := client.Permalink(v.ID())
		fmt.Println("http://localhost:8080/#" + token)
	}
*/
package cerberus
