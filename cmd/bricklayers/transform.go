package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bricklayers-go/pkg/brick"
	"bricklayers-go/pkg/gcode"
)

func newTransformCmd() *cobra.Command {
	var flags engineFlags
	var outputPath string

	cmd := &cobra.Command{
		Use:   "transform <toolpath.gcode>",
		Short: "Rewrite a G-code file with brick layer transforms applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			engine := brick.New(cfg, nil)
			if err := engine.Load(args[0]); err != nil {
				return err
			}
			if err := engine.Enable(); err != nil {
				return err
			}

			if err := transformStream(engine, args[0], out); err != nil {
				return err
			}

			st := engine.Status()
			fmt.Fprintf(cmd.ErrOrStderr(), "transformed %d of %d moves (%d transform points)\n",
				st.MovesTransformed, st.MovesTotal, st.TransformPoints)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	return cmd
}

// transformStream replays the toolpath through the interceptor line by
// line, the same way the printer host feeds live moves. Non-move lines
// and pass-through moves are written byte-identical to the input.
func transformStream(engine *brick.Engine, path string, out io.Writer) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open toolpath: %w", err)
	}
	defer in.Close()

	w := bufio.NewWriter(out)
	defer w.Flush()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(w, interceptLine(engine, scanner.Text())); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// interceptLine runs one toolpath line through the engine and returns
// the line to emit. Only rewritten moves change. Classification must
// use the same rule as the scan pass: a G1 line with a marker comment
// trailing it is a marker, not a counted move, and feeding it to the
// interceptor would shift every later ordinal.
func interceptLine(engine *brick.Engine, line string) string {
	if ev := gcode.Classify(line); ev.Kind == gcode.MoveCommand {
		if rewritten, hit := engine.Intercept(ev.Move); hit {
			return rewritten.String()
		}
	}
	return line
}
