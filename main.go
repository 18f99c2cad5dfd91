// Command aegis serves the MFA enrollment and verification API used by the
// mfactl console and browser hosts.
package main

import (
	"context"
	"os"

	"github.com/shandysiswandi/aegis/internal/app"
)

func main() {
	application := app.New()
	err := <-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	application.Stop(ctx)
	cancel()

	if err != nil {
		os.Exit(1)
	}
}
