// Command prismatenant adds a tenant field and index
// to a fixed set of models in a Prisma schema file, in place.
//
// Usage:
//
//	prismatenant [--config FILE] [--schema FILE] [--model NAME ...] [--dry-run] [--migration FILE]
//	prismatenant check [--config FILE] [--schema FILE] [--model NAME ...]
//
// Settings not given as flags come from the config file,
// then from the environment (PRISMATENANT_CONFIG, PRISMATENANT_SCHEMA, also read from .env),
// then from built-in defaults.
// So PRISMATENANT_SCHEMA applies only when the config file has no schema_path.
package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobg/prismatenant"
)

type options struct {
	configPath    string
	schemaPath    string
	models        []string
	dryRun        bool
	migrationPath string
	logLevel      string
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := new(options)

	root := &cobra.Command{
		Use:          "prismatenant",
		Short:        "Add a tenant field and index to Prisma models",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	pflags := root.PersistentFlags()
	pflags.StringVar(&opts.configPath, "config", os.Getenv("PRISMATENANT_CONFIG"), "YAML config file")
	pflags.StringVar(&opts.schemaPath, "schema", "", "schema file to patch (default $PRISMATENANT_SCHEMA or "+prismatenant.DefaultSchemaPath+")")
	pflags.StringSliceVar(&opts.models, "model", nil, "model to patch, repeatable (default: the built-in model list)")
	pflags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the patched schema instead of writing it")
	root.Flags().StringVar(&opts.migrationPath, "migration", "", "also write a SQL migration for the patch to this file")

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Fail if any model still needs a tenant field or index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd, opts)
		},
	})

	return root
}

func (o *options) config() (prismatenant.Config, error) {
	cfg := new(prismatenant.Config)
	if o.configPath != "" {
		var err error
		cfg, err = prismatenant.LoadConfig(o.configPath)
		if err != nil {
			return prismatenant.Config{}, err
		}
	}
	switch {
	case o.schemaPath != "":
		cfg.SchemaPath = o.schemaPath
	case cfg.SchemaPath == "":
		cfg.SchemaPath = os.Getenv("PRISMATENANT_SCHEMA")
	}
	if len(o.models) > 0 {
		cfg.Models = o.models
	}
	if o.migrationPath != "" {
		cfg.MigrationPath = o.migrationPath
	}
	return *cfg, nil
}

func (o *options) injector() (*prismatenant.Injector, *zap.Logger, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(o.logLevel)
	if err != nil {
		return nil, nil, err
	}
	inj, err := prismatenant.NewInjector(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return inj, logger, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parsing log level")
	}
	config := zap.NewProductionConfig()
	config.Level = lvl
	return config.Build()
}

func run(cmd *cobra.Command, opts *options) error {
	inj, logger, err := opts.injector()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := inj.Config()
	result, err := inj.ApplyFile(opts.dryRun)
	if err != nil {
		return err
	}

	if cfg.MigrationPath != "" && result.Changed() {
		sql, err := inj.Migration(result)
		if err != nil {
			return errors.Wrap(err, "generating migration")
		}
		if opts.dryRun {
			fmt.Fprint(cmd.OutOrStdout(), sql)
		} else {
			if err := os.MkdirAll(filepath.Dir(cfg.MigrationPath), 0755); err != nil {
				return errors.Wrap(err, "creating migration directory")
			}
			if err := ioutil.WriteFile(cfg.MigrationPath, []byte(sql), 0644); err != nil {
				return errors.Wrap(err, "writing migration")
			}
			logger.Info("migration written", zap.String("path", cfg.MigrationPath))
		}
	}

	if opts.dryRun {
		fmt.Fprint(cmd.OutOrStdout(), result.Schema)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s to all models\n", cfg.Field)
	return nil
}

func check(cmd *cobra.Command, opts *options) error {
	inj, logger, err := opts.injector()
	if err != nil {
		return err
	}
	defer logger.Sync()

	result, err := inj.ApplyFile(true)
	if err != nil {
		return err
	}

	var pending []string
	for _, m := range result.Models {
		if m.Changed() {
			pending = append(pending, m.Name)
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("models missing %s: %v", inj.Config().Field, pending)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ All models have %s\n", inj.Config().Field)
	return nil
}
