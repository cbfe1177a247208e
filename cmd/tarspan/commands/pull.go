package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/tarspan/registry"
)

var (
	pullPlainHTTP    bool
	pullDockerConfig string
)

var pullCmd = &cobra.Command{
	Use:   "pull REF [DIR]",
	Short: "Pull a span from an OCI registry",
	Long: `Pull downloads every segment of a span artifact into DIR, which
defaults to the current directory, verifying each against its recorded
digest. The span's catalog, when present, is saved alongside the
segments.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)

	pullCmd.Flags().BoolVar(&pullPlainHTTP, "plain-http", false, "use plain HTTP instead of HTTPS")
	pullCmd.Flags().StringVar(&pullDockerConfig, "docker-config", "", "Docker config file to read credentials from")
}

func runPull(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 2 {
		dir = args[1]
	}

	client := registry.New(registryOptions(pullPlainHTTP, pullDockerConfig)...)
	sm, err := client.Pull(cmd.Context(), args[0], dir)
	if err != nil {
		return err
	}

	var total int64
	for _, seg := range sm.Segments() {
		total += seg.Size
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pulled %d segments (%s) from %s into %s\n", len(sm.Segments()), humanize.IBytes(uint64(total)), args[0], dir)
	return nil
}
