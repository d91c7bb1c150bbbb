//go:build !(js && wasm)

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/voxelsplace/carve/carve"
	"github.com/voxelsplace/carve/utils"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "carvetool",
		Short:         "Space carving reconstruction from calibrated photographs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			carve.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "log every carved plane")
	root.AddCommand(
		newCarveCmd(),
		newExportCmd(),
		newFramesToPLYCmd(),
		newFramesToGLBCmd(),
		newInfoCmd(),
		newGenSyntheticCmd(),
	)
	return root
}

func newCarveCmd() *cobra.Command {
	o := utils.DefaultCarveOptions()
	var side, position, reset string
	var keepUnseen bool
	cmd := &cobra.Command{
		Use:   "carve",
		Short: "Carve a dataset and write the reconstruction (.ply, .glb, .stl or .cvol)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if o.Side, err = carve.ParseSideRule(side); err != nil {
				return err
			}
			if o.Position, err = carve.ParseCameraPosition(position); err != nil {
				return err
			}
			if o.MaskReset, err = carve.ParseMaskReset(reset); err != nil {
				return err
			}
			if keepUnseen {
				o.Empty = carve.EmptyKeep
			}
			st, err := utils.RunCarve(cmd.Context(), o)
			if err != nil {
				return err
			}
			state := "converged"
			if !st.Converged {
				state = "pass limit reached"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "carved %d voxels in %d passes (%s), wrote %s\n", st.Carved, len(st.Passes), state, o.Output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.Dataset, "dataset", "d", "", "dataset file (.json or .toml)")
	f.IntVarP(&o.NumImages, "num-images", "n", 0, "number of views to use, 0 for all calibrated cameras")
	f.StringVarP(&o.Output, "output", "o", o.Output, "output file, format by extension")
	f.Float64VarP(&o.VoxelSize, "voxel-size", "v", o.VoxelSize, "voxel edge length in world units")
	f.Float64VarP(&o.Threshold, "threshold", "t", o.Threshold, "per-channel standard deviation limit for photo-consistency")
	f.StringVar(&o.Snapshot, "snapshot", "", "also write a .cvol snapshot")
	f.StringVar(&o.Frames, "frames", "", "record a .cvpack with one frame per sweep")
	f.StringVar(&o.Plot, "plot", "", "write a convergence chart")
	f.IntVar(&o.MaxPasses, "max-passes", 0, "cap on full passes, 0 for the voxel count")
	f.StringVar(&side, "side", "behind", "cameras used for a plane: behind or ahead of the sweep")
	f.StringVar(&position, "camera-position", "translation", "camera point for the side test: translation or center")
	f.StringVar(&reset, "mask-reset", "pass", "clear occlusion masks every pass or every sweep")
	f.BoolVar(&keepUnseen, "keep-unseen", false, "keep voxels no view can see instead of carving them")
	f.BoolVar(&o.SingleSweep, "single-sweep", false, "run only the top-down sweep each pass")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export input.cvol output.(ply|glb|stl|cvol)",
		Short: "Convert a snapshot into a mesh",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.RunExport(args[0], args[1])
		},
	}
}

func newFramesToPLYCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frames2ply input.cvpack output_dir",
		Short: "Write every recorded frame as carve_NNNN.ply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.RunFramesToPLY(args[0], args[1])
		},
	}
}

func newFramesToGLBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frames2glb input.cvpack output.glb",
		Short: "Convert recorded frames into one .glb, one node per frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.RunFramesToGLB(args[0], args[1])
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info input.(cvol|cvpack)",
		Short: "Describe a snapshot or frame pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.RunInfo(args[0], cmd.OutOrStdout())
		},
	}
}

func newGenSyntheticCmd() *cobra.Command {
	o := utils.DefaultSyntheticOptions("")
	cmd := &cobra.Command{
		Use:   "gensynthetic output_dir",
		Short: "Render a synthetic dataset of a colored box",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Dir = args[0]
			path, err := utils.RunGenerateSynthetic(o)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dataset written to", path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Prefix, "prefix", o.Prefix, "image and calibration file prefix")
	f.IntVar(&o.Views, "views", o.Views, "number of cameras")
	f.IntVar(&o.ImageSize, "size", o.ImageSize, "image width and height in pixels")
	f.Float64Var(&o.Distance, "distance", o.Distance, "camera distance from the origin")
	f.Float64Var(&o.Elevation, "elevation", o.Elevation, "camera elevation in degrees")
	f.Float64Var(&o.Bound, "bound", o.Bound, "half size of the carving bounding box")
	f.Float64Var(&o.Noise, "noise", 0, "uniform pixel noise amplitude in [0,1]")
	f.Int64Var(&o.Seed, "seed", 0, "noise seed")
	return cmd
}
