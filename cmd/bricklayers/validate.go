package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bricklayers-go/pkg/brick"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <toolpath.gcode>",
		Short: "Check a G-code file for the slicer comments transforms require",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := brick.ValidateFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "layer changes:  %d\n", report.LayerChanges)
			fmt.Fprintf(out, "feature types:  %d\n", len(report.FeatureTypes))
			for _, t := range report.FeatureTypes {
				fmt.Fprintf(out, "  - %s\n", t)
			}

			if !report.Compatible() {
				if report.LayerChanges == 0 {
					fmt.Fprintln(out, "missing: ;LAYER_CHANGE comments")
				}
				if len(report.FeatureTypes) == 0 {
					fmt.Fprintln(out, "missing: ;TYPE: comments")
				}
				return fmt.Errorf("%s is not compatible with brick layer transforms", args[0])
			}

			if report.HasInnerWall {
				fmt.Fprintln(out, "inner wall perimeters detected")
			} else {
				fmt.Fprintln(out, "warning: no inner walls detected, check wall count in slicer")
			}
			fmt.Fprintln(out, "compatible")
			return nil
		},
	}
}
