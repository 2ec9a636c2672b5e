package cmd

import (
	"context"

	"github.com/foomo/discstorage/pkg/archive"
	"github.com/foomo/discstorage/pkg/handler"
	"github.com/foomo/discstorage/pkg/pipeline"
	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the http api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}

			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
			)

			l := svr.Logger()

			policy, err := archive.ParseConflictPolicy(onConflictFlag(v))
			if err != nil {
				return err
			}

			catalog, err := createCatalog(cmd.Context(), v, l)
			if err != nil {
				return errors.Wrap(err, "failed to create record catalog")
			}
			// the catalog backend must answer before requests are accepted
			svr.AddReadinessHealthzers(healthz.NewHealthzerFn(func(ctx context.Context) error {
				_, err := catalog.List(ctx)
				return err
			}))

			svr.AddClosers(func(ctx context.Context) error {
				return catalog.Close()
			})

			o := pipeline.New(l.Named("inst.pipeline"),
				pipeline.WithWorkDir(workDirFlag(v)),
				pipeline.WithCatalog(catalog),
				pipeline.WithConflictPolicy(policy),
			)

			svr.AddServices(
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), o,
						handler.WithPath(basePathFlag(v)),
						handler.WithRecords(catalog),
						handler.WithRetention(retentionFlag(v)),
						handler.WithRoot(rootFlag(v)),
					),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.GZip(middleware.GZipWithLevel(gzipLevelFlag(v))),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addRetentionFlag(flags, v)
	addRootFlag(flags, v)
	addWorkDirFlag(flags, v)
	addOnConflictFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addGzipLevelFlag(flags, v)
	addRecordsFlags(flags, v)

	return cmd
}
