package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/foomo/keel/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewRecordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and manage stored records",
	}
	cmd.AddCommand(newRecordsListCommand())
	cmd.AddCommand(newRecordsShowCommand())
	cmd.AddCommand(newRecordsDeleteCommand())
	return cmd
}

func newRecordsListCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			catalog, err := createCatalog(cmd.Context(), v, log.Logger().Named("records"))
			if err != nil {
				return err
			}
			defer catalog.Close()

			recs, err := catalog.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tKIND\tLEVEL\tFILES\tSIZE\tCREATED\tARTIFACT")
			for _, rec := range recs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
					rec.Name, rec.Kind, rec.Level, rec.Entries, formatSize(rec.Size),
					rec.CreatedAt.Local().Format(time.DateTime), rec.Artifact)
			}
			return tw.Flush()
		},
	}
	addRecordsFlags(cmd.Flags(), v)
	return cmd
}

func newRecordsShowCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			catalog, err := createCatalog(cmd.Context(), v, log.Logger().Named("records"))
			if err != nil {
				return err
			}
			defer catalog.Close()

			rec, err := catalog.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			bytes, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(bytes))
			return nil
		},
	}
	addRecordsFlags(cmd.Flags(), v)
	return cmd
}

func newRecordsDeleteCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "delete <name>...",
		Short: "Remove records from the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			l := log.Logger().Named("records")
			catalog, err := createCatalog(cmd.Context(), v, l)
			if err != nil {
				return err
			}
			defer catalog.Close()

			var failed []string
			for _, name := range args {
				rec, err := catalog.Get(cmd.Context(), name)
				if err != nil {
					l.Error("failed to read record", zap.String("name", name), zap.Error(err))
					failed = append(failed, name)
					continue
				}
				if deleteArtifactFlag(v) && rec.Artifact != "" {
					if err := os.Remove(rec.Artifact); err != nil && !os.IsNotExist(err) {
						l.Error("failed to remove artifact", zap.String("name", name), zap.Error(err))
						failed = append(failed, name)
						continue
					}
				}
				if err := catalog.Delete(cmd.Context(), name); err != nil {
					l.Error("failed to delete record", zap.String("name", name), zap.Error(err))
					failed = append(failed, name)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", name)
			}
			if len(failed) > 0 {
				return errors.Errorf("failed to delete: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
	addDeleteArtifactFlag(cmd.Flags(), v)
	addRecordsFlags(cmd.Flags(), v)
	return cmd
}
