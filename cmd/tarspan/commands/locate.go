package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/tarspan"
)

var locateCatalog string

var locateCmd = &cobra.Command{
	Use:   "locate --catalog FILE PATH...",
	Short: "Find which segment holds a path",
	Long: `Locate looks each path up in a catalog and prints the segment that
holds it together with the entry's byte offset inside the archive
stream.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)

	locateCmd.Flags().StringVar(&locateCatalog, "catalog", "", "catalog file to search (required)")
	_ = locateCmd.MarkFlagRequired("catalog")
}

func runLocate(cmd *cobra.Command, args []string) error {
	cat, err := tarspan.LoadCatalog(locateCatalog)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	missing := 0
	for _, path := range args {
		seg, entry, ok := cat.Locate(path)
		if !ok {
			fmt.Fprintf(out, "%s\tnot found\n", path)
			missing++
			continue
		}
		fmt.Fprintf(out, "%s\t%s\toffset %d\n", path, seg.Name, entry.Offset)
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d paths not in catalog", missing, len(args))
	}
	return nil
}
