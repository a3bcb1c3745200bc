package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is reachable",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := apiClient.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	fmt.Printf("%s: %s\n", status.Service, status.Status)
	if verbose {
		fmt.Printf("Server time: %s\n", status.Timestamp)
	}
	return nil
}
