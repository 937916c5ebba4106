package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/temirov/otpcop/cmd/cli"
	"github.com/temirov/otpcop/internal/report"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the otpcop command-line application.
func main() {
	executionContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	executionError := cli.NewApplication().Execute(executionContext, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if executionError != nil && !errors.Is(executionError, report.ErrAuditFindings) {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	}
	os.Exit(report.ExitStatus(executionError))
}
