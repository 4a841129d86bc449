package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSplitCmd(e *env) *cobra.Command {
	var method string
	var size int
	cmd := &cobra.Command{
		Use:   "split FILE",
		Short: "Show how a file would be split into chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := e.splitOptions(cmd, method, size, true)
			if err != nil {
				return err
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			preview, err := a.Analysis.PreviewSplit(cmd.Context(), args[0], *opts)
			if err != nil {
				return err
			}

			e.printf("%s: %d chunk(s), %s method, size %d\n\n", preview.File, preview.ChunkCount, preview.Method, preview.ChunkSize)
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tCHARS\tTOKENS\tPREVIEW")
			for _, c := range preview.Chunks {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", c.Index, c.Chars, c.EstimatedTokens, oneLine(c.Preview))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&method, "split-method", "", "page or token (default from config)")
	cmd.Flags().IntVar(&size, "chunk-size", 0, "pages or tokens per chunk (default from config)")
	return cmd
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
