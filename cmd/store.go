package cmd

import (
	"fmt"

	"github.com/foomo/discstorage/pkg/codec"
	"github.com/foomo/discstorage/pkg/pipeline"
	"github.com/foomo/keel/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewStoreCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "store <name> <output> <input>...",
		Short: "Archive and compress inputs into a single artifact",
		Example: "  discstorage store photos ~/backups/photos.tar.xz ~/Pictures/2024 ~/notes.txt\n" +
			"  discstorage store --kind fast --level 3 logs /tmp/logs.tar.zst /var/log/app",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			l := log.Logger().Named("store")

			kind, err := codec.ParseKind(kindFlag(v))
			if err != nil {
				return err
			}

			catalog, err := createCatalog(cmd.Context(), v, l)
			if err != nil {
				return errors.Wrap(err, "failed to create record catalog")
			}
			defer catalog.Close()

			o := pipeline.New(l.Named("pipeline"),
				pipeline.WithWorkDir(workDirFlag(v)),
				pipeline.WithCatalog(catalog),
			)

			op, err := o.Store(cmd.Context(), pipeline.StoreRequest{
				Name:   args[0],
				Output: args[1],
				Inputs: args[2:],
				Kind:   kind,
				Level:  levelFlag(v),
			})
			if err != nil {
				return err
			}

			res := watch(cmd.Context(), l, op, cmd.ErrOrStderr(), quietFlag(v))
			if res.Err != nil {
				return res.Err
			}

			l.Debug("stored", zap.String("artifact", res.Artifact), zap.Duration("duration", res.Duration()))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stored %q: %d files, %s, %s level %d -> %s\n",
				res.Record.Name, res.Record.Entries, formatSize(res.Record.Size), res.Record.Kind, res.Record.Level, res.Artifact)
			return nil
		},
	}

	flags := cmd.Flags()
	addKindFlag(flags, v)
	addLevelFlag(flags, v)
	addWorkDirFlag(flags, v)
	addQuietFlag(flags, v)
	addRecordsFlags(flags, v)

	return cmd
}
