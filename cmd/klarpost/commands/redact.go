package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/klarpost/klarpost/internal/redact"
)

var redactCmd = &cobra.Command{
	Use:   "redact <file>",
	Short: "Extract and redact a document",
	Long:  "Run the extraction pipeline, then remove personal data and print the redacted text.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRedact,
}

func init() {
	rootCmd.AddCommand(redactCmd)
}

func runRedact(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	text, err := extractFile(ctx, args[0])
	if err != nil {
		return err
	}

	heading("Redacted text")
	fmt.Println(redact.Redact(text))
	return nil
}
