package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/foomo/discstorage/pkg/archive"
	"github.com/foomo/discstorage/pkg/codec"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// configDefaults are written by "config init".
var configDefaults = map[string]interface{}{
	"compression.kind":    string(codec.KindHighRatio),
	"compression.level":   int(codec.DefaultLevel),
	"work_dir":            os.TempDir(),
	"extract.on_conflict": string(archive.ConflictRename),
	"records.type":        "filesystem",
	"records.dir":         "",
	"records.bucket":      "",
	"records.prefix":      "",
}

// configPath returns $DISCSTORAGE_CONFIG or the file in the user config dir.
func configPath() (string, error) {
	if p := os.Getenv("DISCSTORAGE_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve user config dir")
	}
	return filepath.Join(dir, "discstorage", "config.yaml"), nil
}

// loadConfig merges the config file into v. A missing file is not an error.
func loadConfig(v *viper.Viper) error {
	p, err := configPath()
	if err != nil {
		return err
	}
	v.SetConfigFile(p)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrapf(err, "failed to read config %s", p)
	}
	return nil
}

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configPath()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
				return errors.Wrap(err, "failed to create config dir")
			}

			out := viper.New()
			for key, value := range configDefaults {
				out.Set(key, value)
			}
			if forceFlag(v) {
				err = out.WriteConfigAs(p)
			} else {
				err = out.SafeWriteConfigAs(p)
			}
			if err != nil {
				return errors.Wrapf(err, "failed to write config %s", p)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
	addForceFlag(cmd.Flags(), v)
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for key, value := range configDefaults {
				v.SetDefault(key, value)
			}
			if err := loadConfig(v); err != nil {
				return err
			}
			bytes, err := json.MarshalIndent(v.AllSettings(), "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(bytes))
			return nil
		},
	}
	return cmd
}
