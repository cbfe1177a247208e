package commands

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/tarspan"
	"github.com/meigma/tarspan/registry"
)

var (
	pushCatalog      string
	pushDir          string
	pushTags         []string
	pushPlainHTTP    bool
	pushDockerConfig string
)

var pushCmd = &cobra.Command{
	Use:   "push --catalog FILE REF",
	Short: "Push a span to an OCI registry",
	Long: `Push uploads every segment a catalog records, plus the catalog
itself, to an OCI registry as a single artifact. Segment files are
read from the catalog's directory unless --dir points elsewhere.

REF is a registry reference with a tag, for example
registry.example.com/spans/backup:2024-01-15.`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringVar(&pushCatalog, "catalog", "", "catalog of the span to push (required)")
	pushCmd.Flags().StringVar(&pushDir, "dir", "", "directory holding the segment files (default: catalog directory)")
	pushCmd.Flags().StringArrayVar(&pushTags, "tag", nil, "additional tags for the pushed artifact")
	pushCmd.Flags().BoolVar(&pushPlainHTTP, "plain-http", false, "use plain HTTP instead of HTTPS")
	pushCmd.Flags().StringVar(&pushDockerConfig, "docker-config", "", "Docker config file to read credentials from")
	_ = pushCmd.MarkFlagRequired("catalog")
}

func runPush(cmd *cobra.Command, args []string) error {
	cat, err := tarspan.LoadCatalog(pushCatalog)
	if err != nil {
		return err
	}
	dir := pushDir
	if dir == "" {
		dir = filepath.Dir(pushCatalog)
	}
	span, err := registry.SpanFromCatalog(dir, cat)
	if err != nil {
		return err
	}

	client := registry.New(registryOptions(pushPlainHTTP, pushDockerConfig)...)
	if err := client.Push(cmd.Context(), args[0], span, registry.WithTags(pushTags...)); err != nil {
		return err
	}

	var total int64
	for _, seg := range span.Segments {
		total += seg.Size
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pushed %d segments (%s) to %s\n", len(span.Segments), humanize.IBytes(uint64(total)), args[0])
	return nil
}

// registryOptions builds client options from a command's transport flags.
func registryOptions(plainHTTP bool, dockerConfig string) []registry.Option {
	opts := []registry.Option{registry.WithLogger(newLogger())}
	if plainHTTP {
		opts = append(opts, registry.WithPlainHTTP(true))
	}
	if dockerConfig != "" {
		opts = append(opts, registry.WithDockerConfig(dockerConfig))
	}
	return opts
}
