package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mentora-ai/mentora/internal/errors"
)

var prefsKind string

func init() {
	prefsSetCmd.Flags().StringVar(&prefsKind, "kind", "string", "Value kind: string, bool or int")
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Read and write app preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Print one preference, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.prefs.All()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		for _, e := range entries {
			if e.Key == args[0] {
				fmt.Fprintln(cmd.OutOrStdout(), e.Value)
				return nil
			}
		}
		return errors.User(errors.CodeInvalidInput, "no preference named "+args[0])
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store a preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		key, raw := args[0], args[1]
		switch prefsKind {
		case "string":
			return a.prefs.SaveString(key, raw)
		case "bool":
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return errors.User(errors.CodeInvalidInput, "not a boolean: "+raw)
			}
			return a.prefs.SaveBool(key, v)
		case "int":
			v, err := strconv.Atoi(raw)
			if err != nil {
				return errors.User(errors.CodeInvalidInput, "not an integer: "+raw)
			}
			return a.prefs.SaveInt(key, v)
		default:
			return errors.User(errors.CodeInvalidInput, "unknown kind "+prefsKind)
		}
	},
}
