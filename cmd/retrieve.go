package cmd

import (
	"fmt"

	"github.com/foomo/discstorage/pkg/archive"
	"github.com/foomo/discstorage/pkg/codec"
	"github.com/foomo/discstorage/pkg/pipeline"
	"github.com/foomo/keel/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewRetrieveCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "retrieve [<artifact>] <dest>",
		Short: "Decompress and extract an artifact into a directory",
		Example: "  discstorage retrieve ~/backups/photos.tar.xz ~/restore\n" +
			"  discstorage retrieve --record photos ~/restore",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			l := log.Logger().Named("retrieve")

			policy, err := archive.ParseConflictPolicy(onConflictFlag(v))
			if err != nil {
				return err
			}

			var kind codec.Kind
			if s := retrieveKindFlag(v); s != "" {
				if kind, err = codec.ParseKind(s); err != nil {
					return err
				}
			}

			req := pipeline.RetrieveRequest{Kind: kind}
			if name := recordFlag(v); name != "" {
				if len(args) != 1 {
					return errors.New("expected only <dest> when --record is set")
				}
				catalog, err := createCatalog(cmd.Context(), v, l)
				if err != nil {
					return errors.Wrap(err, "failed to create record catalog")
				}
				defer catalog.Close()

				rec, err := catalog.Get(cmd.Context(), name)
				if err != nil {
					return err
				}
				req.Artifact, req.Dest = rec.Artifact, args[0]
				if req.Kind == "" {
					req.Kind = rec.Kind
				}
			} else {
				if len(args) != 2 {
					return errors.New("expected <artifact> <dest>")
				}
				req.Artifact, req.Dest = args[0], args[1]
			}

			o := pipeline.New(l.Named("pipeline"),
				pipeline.WithWorkDir(workDirFlag(v)),
				pipeline.WithConflictPolicy(policy),
			)
			op, err := o.Retrieve(cmd.Context(), req)
			if err != nil {
				return err
			}

			res := watch(cmd.Context(), l, op, cmd.ErrOrStderr(), quietFlag(v))
			if res.Err != nil {
				return res.Err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restored %d files into %s\n", len(res.Files), res.Dir)
			return nil
		},
	}

	flags := cmd.Flags()
	addRetrieveKindFlag(flags, v)
	addOnConflictFlag(flags, v)
	addRecordFlag(flags, v)
	addWorkDirFlag(flags, v)
	addQuietFlag(flags, v)
	addRecordsFlags(flags, v)

	return cmd
}
