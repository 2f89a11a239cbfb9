package cerberus_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/pkg/adapters/memory"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/ports"
)

// ExampleNew shows a client backed by an in-memory catalog and a stub service.
// A real deployment passes httpAdapter.NewClient instead of the stub.
func ExampleNew() {
	service := ports.SemanticsServiceFunc(func(ctx context.Context, req domain.Request) ([]byte, error) {
		switch req.Action.Kind {
		case domain.ActionElaborate:
			return []byte(`{"status":"elaboration","pp":{"core":"proc main (): eff integer"},"ast":{}}`), nil
		case domain.ActionExecute:
			return []byte(`{"status":"done","result":"Defined {value: \"0\"}"}`), nil
		}
		return nil, fmt.Errorf("unexpected action %s", req.Action)
	})

	client := cerberus.New(service,
		cerberus.WithFetcher(memory.NewFetcher(map[string]string{
			cerberus.DefaultExample: "int main(void) { return 0; }",
		})),
	)

	// 1. Open the default example, which is elaborated right away.
	ctx := context.Background()
	v, err := client.OpenURL(ctx, "http://localhost:8080/")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.Title(), "dirty:", v.Dirty())
	fmt.Println(v.LastResult().PP.Core)

	// 2. Run it once under the random execution mode.
	res, err := client.Execute(ctx, "", domain.ModeRandom)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Result)

	// Output:
	// example.c dirty: false
	// proc main (): eff integer
	// Defined {value: "0"}
}
