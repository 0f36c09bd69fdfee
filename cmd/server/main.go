// Command server runs the reconciliation service's HTTP API.
package main

import (
	"github.com/wikirecon/reconcile/cmd/server/cmd"
)

func main() {
	cmd.Execute()
}
