package cmd

import (
	"os"
	"time"

	"github.com/foomo/discstorage/pkg/archive"
	"github.com/foomo/discstorage/pkg/codec"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "console", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func kindFlag(v *viper.Viper) string {
	return v.GetString("compression.kind")
}

func addKindFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("kind", string(codec.KindHighRatio), "Compression kind (highratio, fast)")
	_ = v.BindPFlag("compression.kind", flags.Lookup("kind"))
	_ = v.BindEnv("compression.kind", "DISCSTORAGE_COMPRESSION_KIND")
}

func levelFlag(v *viper.Viper) codec.Level {
	return codec.Level(v.GetInt("compression.level"))
}

func addLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("level", int(codec.DefaultLevel), "Compression level (0-9)")
	_ = v.BindPFlag("compression.level", flags.Lookup("level"))
	_ = v.BindEnv("compression.level", "DISCSTORAGE_COMPRESSION_LEVEL")
}

func workDirFlag(v *viper.Viper) string {
	return v.GetString("work_dir")
}

func addWorkDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("work-dir", os.TempDir(), "Directory for intermediate archives")
	_ = v.BindPFlag("work_dir", flags.Lookup("work-dir"))
	_ = v.BindEnv("work_dir", "DISCSTORAGE_WORK_DIR")
}

func onConflictFlag(v *viper.Viper) string {
	return v.GetString("extract.on_conflict")
}

func addOnConflictFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("on-conflict", string(archive.ConflictRename), "What to do with existing files (overwrite, skip, rename)")
	_ = v.BindPFlag("extract.on_conflict", flags.Lookup("on-conflict"))
	_ = v.BindEnv("extract.on_conflict", "DISCSTORAGE_EXTRACT_ON_CONFLICT")
}

func recordFlag(v *viper.Viper) string {
	return v.GetString("record")
}

func addRecordFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("record", "", "Name of a stored record to retrieve")
	_ = v.BindPFlag("record", flags.Lookup("record"))
}

func recordsTypeFlag(v *viper.Viper) string {
	return v.GetString("records.type")
}

func addRecordsTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("records-type", "filesystem", "Record catalog storage (filesystem, blob)")
	_ = v.BindPFlag("records.type", flags.Lookup("records-type"))
	_ = v.BindEnv("records.type", "DISCSTORAGE_RECORDS_TYPE")
}

func recordsDirFlag(v *viper.Viper) string {
	return v.GetString("records.dir")
}

func addRecordsDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("records-dir", "", "Directory of the filesystem record catalog (default: user config dir)")
	_ = v.BindPFlag("records.dir", flags.Lookup("records-dir"))
	_ = v.BindEnv("records.dir", "DISCSTORAGE_RECORDS_DIR")
}

func recordsBucketFlag(v *viper.Viper) string {
	return v.GetString("records.bucket")
}

func addRecordsBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("records-bucket", "", "Bucket URL of the blob record catalog (gs://, s3://, azblob://, file://)")
	_ = v.BindPFlag("records.bucket", flags.Lookup("records-bucket"))
	_ = v.BindEnv("records.bucket", "DISCSTORAGE_RECORDS_BUCKET")
}

func recordsPrefixFlag(v *viper.Viper) string {
	return v.GetString("records.prefix")
}

func addRecordsPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("records-prefix", "", "Key prefix inside the blob record catalog")
	_ = v.BindPFlag("records.prefix", flags.Lookup("records-prefix"))
	_ = v.BindEnv("records.prefix", "DISCSTORAGE_RECORDS_PREFIX")
}

func addRecordsFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addRecordsTypeFlag(flags, v)
	addRecordsDirFlag(flags, v)
	addRecordsBucketFlag(flags, v)
	addRecordsPrefixFlag(flags, v)
}

func quietFlag(v *viper.Viper) bool {
	return v.GetBool("quiet")
}

func addQuietFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.BoolP("quiet", "q", false, "Do not render progress")
	_ = v.BindPFlag("quiet", flags.Lookup("quiet"))
}

func deleteArtifactFlag(v *viper.Viper) bool {
	return v.GetBool("delete_artifact")
}

func addDeleteArtifactFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("delete-artifact", false, "Also remove the compressed artifact")
	_ = v.BindPFlag("delete_artifact", flags.Lookup("delete-artifact"))
}

func forceFlag(v *viper.Viper) bool {
	return v.GetBool("force")
}

func addForceFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("force", false, "Overwrite an existing file")
	_ = v.BindPFlag("force", flags.Lookup("force"))
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "DISCSTORAGE_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/discstorage", "Base path to export the api on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "DISCSTORAGE_BASE_PATH")
}

func retentionFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("retention")
}

func addRetentionFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("retention", time.Hour, "How long finished operations stay queryable")
	_ = v.BindPFlag("retention", flags.Lookup("retention"))
	_ = v.BindEnv("retention", "DISCSTORAGE_RETENTION")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func retrieveKindFlag(v *viper.Viper) string {
	return v.GetString("retrieve.kind")
}

func addRetrieveKindFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("kind", "", "Compression kind of the artifact (default: detected)")
	_ = v.BindPFlag("retrieve.kind", flags.Lookup("kind"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}

func gzipLevelFlag(v *viper.Viper) int {
	return v.GetInt("gzip.level")
}

func addGzipLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("gzip-level", 6, "Compression level of http replies")
	_ = v.BindPFlag("gzip.level", flags.Lookup("gzip-level"))
	_ = v.BindEnv("gzip.level", "DISCSTORAGE_GZIP_LEVEL")
}

func rootFlag(v *viper.Viper) string {
	return v.GetString("root")
}

func addRootFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("root", ".", "Directory that api request paths are confined to")
	_ = v.BindPFlag("root", flags.Lookup("root"))
	_ = v.BindEnv("root", "DISCSTORAGE_ROOT")
}
