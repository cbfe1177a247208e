package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/tarspan"
)

var listBytes bool

var listCmd = &cobra.Command{
	Use:   "list SEGMENT",
	Short: "List the entries stored in a segment",
	Long: `List prints every entry of a segment in stored order, with its mode,
size, modification time, and path. Compressed segments are detected
and read transparently.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listBytes, "bytes", false, "print exact byte sizes instead of human-readable ones")
}

func runList(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	stream, err := tarspan.OpenSegment(f)
	if err != nil {
		return err
	}
	defer stream.Close()

	entries, err := tarspan.List(stream)
	if err != nil {
		return fmt.Errorf("read segment %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		size := humanize.IBytes(uint64(e.Size))
		if listBytes {
			size = fmt.Sprintf("%d", e.Size)
		}
		name := e.Name
		if e.Type == tarspan.TypeSymlink {
			name += " -> " + e.LinkTarget
		}
		fmt.Fprintf(out, "%s\t%8s\t%s\t%s\n", e.Mode, size, e.ModTime.Format("2006-01-02 15:04"), name)
	}
	fmt.Fprintf(out, "%d entries\n", len(entries))
	return nil
}
