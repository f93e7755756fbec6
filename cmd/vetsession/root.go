package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cli struct {
	cfgFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "vetsession",
		Short: "Veterinary portal session tooling",
		Long: `vetsession works with the client-side session of the veterinary portal.

Configuration:
  Config is loaded from vetsession.yaml in the current directory or
  $HOME/.vetsession/. Environment variables override config values with the
  VETSESSION_ prefix.
  Example: VETSESSION_NOTIFY_BASE_URL=https://api.example.test

Commands:
  decode      Decode a bearer credential
  resolve     Resolve the active role for a path
  menu        Print a role's menu
  mint        Sign a development credential
  poll        Fetch actionable notifications`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initViper(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: ./vetsession.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newDecodeCmd(),
		newResolveCmd(),
		newMenuCmd(),
		newMintCmd(c),
		newPollCmd(c),
	)
	return root
}

func (c *cli) initViper(cmd *cobra.Command) error {
	v := c.v
	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else {
		v.SetConfigName("vetsession")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.vetsession")
		}
	}

	v.SetEnvPrefix("VETSESSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.BindPFlag("log_level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || c.cfgFile != "" {
			return err
		}
	}
	return nil
}

func (c *cli) logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.v.GetString("log_level"))); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
