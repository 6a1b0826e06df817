// Command concierge runs the dining concierge: the chat HTTP API, the
// recommendation worker, ingestion jobs and the Lambda handlers.
//
//	@title			Dining Concierge API
//	@version		1.0
//	@description	Chat front end, dialog code hook and ingestion admin for the dining concierge.
//	@BasePath		/api/v1
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tbourn/go-dining-concierge/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRoot().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
