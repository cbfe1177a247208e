package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/meigma/tarspan"
)

var (
	verifyCatalog string
	verifyDigest  string
	verifyWorkers int
)

var verifyCmd = &cobra.Command{
	Use:   "verify (--catalog FILE [DIR] | --digest DIGEST SEGMENT)",
	Short: "Verify stored segments against recorded digests",
	Long: `Verify checks segment files against their recorded digests.

With --catalog, every segment the catalog records is checked against
the files in DIR, which defaults to the catalog's directory. With
--digest, a single segment file is checked against the given digest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyCatalog, "catalog", "", "verify every segment recorded in this catalog")
	verifyCmd.Flags().StringVar(&verifyDigest, "digest", "", "verify one segment against this digest")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 4, "segments verified concurrently with --catalog")
	verifyCmd.MarkFlagsOneRequired("catalog", "digest")
	verifyCmd.MarkFlagsMutuallyExclusive("catalog", "digest")
}

func runVerify(cmd *cobra.Command, args []string) error {
	if verifyDigest != "" {
		if len(args) != 1 {
			return errors.New("--digest needs exactly one SEGMENT argument")
		}
		want, err := digest.Parse(verifyDigest)
		if err != nil {
			return fmt.Errorf("invalid --digest: %w", err)
		}
		if err := tarspan.VerifySegment(args[0], want); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", args[0])
		return nil
	}

	cat, err := tarspan.LoadCatalog(verifyCatalog)
	if err != nil {
		return err
	}
	dir := filepath.Dir(verifyCatalog)
	if len(args) == 1 {
		dir = args[0]
	}
	if err := tarspan.VerifyCatalog(cmd.Context(), dir, cat, verifyWorkers); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d segments OK\n", len(cat.Segments))
	return nil
}
