package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mentora-ai/mentora/internal/errors"
)

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsPullCmd)
	modelsCmd.AddCommand(modelsLoadCmd)
	modelsCmd.AddCommand(statusCmd)
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage on-device models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloadable and downloaded models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSIZE (MB)\tDOWNLOADED\tLOADED")
		for _, d := range a.models.ListModels(cmd.Context()) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n", d.ID, d.Name, d.Category, d.SizeInMB(), d.Downloaded, d.Loaded)
		}
		return tw.Flush()
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull MODEL_ID",
	Short: "Download a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		last := 0.0
		shown := -1
		for f := range a.models.Download(cmd.Context(), args[0]) {
			last = f
			if pct := int(f * 100); pct != shown {
				shown = pct
				stderr("\rDownloading %s: %3d%%", args[0], pct)
			}
		}
		stderr("\n")
		if last < 1 {
			return errors.New(errors.CodeDownloadFailed, "download of "+args[0]+" did not complete", errors.CategorySystem)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s downloaded\n", args[0])
		return nil
	},
}

var modelsLoadCmd = &cobra.Command{
	Use:   "load MODEL_ID",
	Short: "Load a model into memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.models.Load(cmd.Context(), args[0]) {
			return errors.New(errors.CodeModelNotLoaded, "failed to load "+args[0], errors.CategorySystem)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s loaded\n", args[0])
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine, backend and generation status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return printJSON(cmd.OutOrStdout(), a.svc.Status(cmd.Context()))
	},
}
