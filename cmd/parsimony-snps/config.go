package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage parsimony-snps configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + configName + ".yaml.",
		Example: `  parsimony-snps config                                # show all config
  parsimony-snps config set filter.min_homozygotes 3  # raise the threshold
  parsimony-snps config get filter.tie_break          # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

// configFilePath returns the config file in use, or the default one in $HOME.
func configFilePath() (string, error) {
	if f := viper.ConfigFileUsed(); f != "" {
		return f, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// loadConfigFile reads only the keys stored in the config file, without
// flag defaults or environment overrides. A missing file yields an empty config.
func loadConfigFile() (*viper.Viper, string, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, "", err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("read config %s: %w", path, err)
	}
	return v, path, nil
}

func runConfigShow(cmd *cobra.Command) error {
	v, path, err := loadConfigFile()
	if err != nil {
		return err
	}

	settings := v.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "# No configuration set. Config file: %s\n", path)
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

// configValue stores numbers and booleans with their YAML type so the
// file reads naturally; everything else is kept as a string.
func configValue(value string) any {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	switch value {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	return value
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	v, path, err := loadConfigFile()
	if err != nil {
		return err
	}

	v.Set(key, configValue(value))
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, path)
	return nil
}

// runConfigGet prints the effective value of key, including flag defaults
// and PARSIMONY_SNPS_* overrides.
func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
