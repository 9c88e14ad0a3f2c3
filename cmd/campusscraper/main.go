package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		logFailure(err)
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
	}
	closeLog()

	if err != nil {
		os.Exit(1)
	}
}

// logFailure records err in the log file along with its error kind
func logFailure(err error) {
	entry := logrus.WithError(err)
	if kind := errkind.Kind(err); kind != nil {
		entry = entry.WithField("kind", kind.Error())
	}
	entry.Error("Scraper failed")
}
