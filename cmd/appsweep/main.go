// cmd/appsweep/main.go

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/windowsadmins/appsweep/pkg/apps"
	"github.com/windowsadmins/appsweep/pkg/logging"
	"github.com/windowsadmins/appsweep/pkg/utils"
)

func main() {
	// Interrupts cancel the run; running uninstallers are stopped and the
	// remaining applications are skipped.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{
		console:   logging.NewConsole(),
		stderr:    os.Stderr,
		fs:        afero.NewOsFs(),
		newLister: apps.NewRegistryLister,
	}
	code := c.run(ctx, utils.CommandLineArgs()[1:])
	stop()
	os.Exit(code)
}
