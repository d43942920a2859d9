// jobmate-match-service
//
// Scores applicants against the job catalog through the external fuzzy
// matching engine and tracks the applications that follow.
// Exposes REST (gin) and gRPC APIs used by the Gateway to implement:
//   - evaluateApplicant(applicantId)          : score every unscored job
//   - createApplication(applicant, job, score) : apply, starts at RECEIVED
//   - advanceStatus(applicationId, newStatus)  : state machine transitions
//
// Publishes EVENT_MATCHES_FOUND, EVENT_APPLICATION_CREATED and
// EVENT_STATUS_CHANGED to Redis for Gateway SSE forward.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:           "match-service",
	Short:         "Applicant/job matching and application lifecycle service",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, evaluateCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "[match-service] %v\n", err)
		os.Exit(1)
	}
}
