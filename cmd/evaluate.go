package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"jobmate/match-service/internal/grpcserver"
)

var remoteAddr string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <applicantId>",
	Short: "Score one applicant against every unscored job and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if remoteAddr != "" {
			return evaluateRemote(cmd.Context(), cmd.OutOrStdout(), remoteAddr, args[0])
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.orch.EvaluateApplicant(cmd.Context(), args[0])
		if res != nil {
			printEvaluation(cmd.OutOrStdout(), res.Summary(), res.Warnings())
		}
		return err
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&remoteAddr, "remote", "",
		"gRPC address of a running match-service; evaluate there instead of in-process")
}

// evaluateRemote asks a running service to evaluate applicantID, so the
// catalog is scored by the instance that owns the database connection.
func evaluateRemote(ctx context.Context, out io.Writer, addr, applicantID string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := grpcserver.NewClient(conn).EvaluateApplicant(ctx,
		&grpcserver.EvaluateApplicantRequest{ApplicantID: applicantID})
	if err != nil {
		return fmt.Errorf("remote evaluate: %w", err)
	}
	printEvaluation(out, resp.Summary, resp.Warnings)
	return nil
}

func printEvaluation(out io.Writer, summary string, warnings []string) {
	fmt.Fprintln(out, summary)
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}
