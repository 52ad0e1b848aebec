// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyrecover.
//
// go-keyrecover is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides of global flags, e.g.
// KEYRECOVER_OUTPUT=json.
const envPrefix = "KEYRECOVER"

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the server configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose enables progress output on stderr
	Verbose bool
}

// NewRootCommand builds the keyrecover command tree.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	cfg := &Config{}

	root := &cobra.Command{
		Use:   "keyrecover",
		Short: "Recover private keys from threshold secret shares",
		Long: `keyrecover reassembles a private key from "SSS-" secret shares.

Any threshold of shares dealt from the same key recovers its WIF and
pay-to-pubkey-hash address. Shares can be inspected, keys can be split,
and the recovery API can be served over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.bind(v, cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "server config file (YAML)")
	flags.StringP("output", "o", string(OutputFormatText), "output format (text, json)")
	flags.BoolP("verbose", "v", false, "verbose output")

	root.AddCommand(
		newCombineCmd(cfg),
		newInspectCmd(cfg),
		newAddressCmd(cfg),
		newSplitCmd(cfg),
		newServeCmd(cfg),
		newVersionCmd(cfg),
	)
	return root
}

// bind resolves global flags through viper so environment variables apply
// when a flag is not given.
func (c *Config) bind(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	c.ConfigFile = v.GetString("config")
	c.OutputFormat = strings.ToLower(v.GetString("output"))
	c.Verbose = v.GetBool("verbose")

	switch OutputFormat(c.OutputFormat) {
	case OutputFormatText, OutputFormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", c.OutputFormat)
	}
}

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		format, _ := root.PersistentFlags().GetString("output")
		_ = NewPrinter(format, root.ErrOrStderr()).PrintError(err) // best-effort
		return err
	}
	return nil
}

// printVerbose prints a message if verbose mode is enabled
func (c *Config) printVerbose(cmd *cobra.Command, format string, args ...interface{}) {
	if c.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "[VERBOSE] "+format+"\n", args...)
	}
}

func (c *Config) printer(cmd *cobra.Command) *Printer {
	return NewPrinter(c.OutputFormat, cmd.OutOrStdout())
}
