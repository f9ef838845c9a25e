package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ontoforge.io/ontoforge/internal/idgen"
)

// NewMintCommand creates the mint command.
func NewMintCommand() *cobra.Command {
	var (
		count     int
		machineID uint16
		epoch     int64
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Generate entity identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			gen, err := idgen.New(machineID, idgen.WithEpoch(epoch))
			if err != nil {
				return err
			}
			ids, err := gen.GenerateN(count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of identifiers")
	cmd.Flags().Uint16Var(&machineID, "machine-id", 0, "machine id (0-1023)")
	cmd.Flags().Int64Var(&epoch, "epoch", idgen.DefaultEpoch, "custom epoch in Unix milliseconds")
	return cmd
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand() *cobra.Command {
	var epoch int64

	cmd := &cobra.Command{
		Use:   "decode ID",
		Short: "Split an identifier into timestamp, machine and sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid identifier %q", args[0])
			}
			parts := idgen.Decompose(id, epoch)

			label := color.New(color.FgCyan)
			out := cmd.OutOrStdout()
			label.Fprint(out, "time:       ")
			fmt.Fprintln(out, parts.Time().UTC().Format(time.RFC3339Nano))
			label.Fprint(out, "machine_id: ")
			fmt.Fprintln(out, parts.MachineID)
			label.Fprint(out, "sequence:   ")
			fmt.Fprintln(out, parts.Sequence)
			return nil
		},
	}
	cmd.Flags().Int64Var(&epoch, "epoch", idgen.DefaultEpoch, "custom epoch in Unix milliseconds")
	return cmd
}
