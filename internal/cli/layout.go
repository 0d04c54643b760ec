package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type layoutOptions struct {
	file   string
	ticks  int
	format string
	mock   bool
}

func newLayoutCmd(root *rootOptions) *cobra.Command {
	opts := &layoutOptions{}
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Ingest notes, run the layout simulation, and print node positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(opts.format)
			if err != nil {
				return err
			}
			if opts.ticks < 0 {
				return fmt.Errorf("ticks must not be negative, got %d", opts.ticks)
			}
			sess, err := openSession(cmd, root, opts.mock, 0)
			if err != nil {
				return err
			}
			defer sess.close()

			if _, err := sess.ingestFrom(cmd.Context(), cmd.InOrStdin(), opts.file); err != nil {
				return err
			}
			engine := sess.comp.Engine
			for i := 0; i < opts.ticks; i++ {
				engine.Tick()
			}
			return WriteLayout(cmd.OutOrStdout(), engine.Snapshot(), format)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read notes from this file instead of stdin")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 300, "number of simulation ticks to run")
	cmd.Flags().StringVar(&opts.format, "format", string(OutputText), "output format: text or json")
	cmd.Flags().BoolVar(&opts.mock, "mock", false, "use the deterministic mock embedder")
	return cmd
}
