package signalhandler

import (
	"os"
	"os/signal"
	"syscall"
)

// SetupHandler runs cleanup and exits when the process is interrupted.
// Runs are not resumable, so an interrupt simply stops the run.
func SetupHandler(cleanup func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		if cleanup != nil {
			cleanup()
		}
		os.Exit(130)
	}()
}
