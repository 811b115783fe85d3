// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/butterfly/cmd/butterfly/commands"
	"github.com/walteh/butterfly/cmd/butterfly/opts"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &opts.RootOpts{Stdout: stdout, Stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "butterfly",
		Short: "Transform and upgrade applications with extension templates",
		Long: `butterfly applies transformation templates from an extension to an
application folder. Templates are ordered operations that edit, create or
remove files, or report manual follow-ups. Results are reported per
operation and the transformed copy is written next to the original unless
--in-place is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(setupLogging(o).WithContext(cmd.Context()))
		},
	}

	addRootFlags(rootCmd, o)

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.AddCommand(
		commands.NewResolveCmd(o),
		commands.NewTransformCmd(o),
		commands.NewUpgradeCmd(o),
		commands.NewRunCmd(o),
		commands.NewTemplatesCmd(o),
		commands.NewVersionCmd(o),
	)
	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.ExtensionFile, "extension", "e", "", "extension manifest (.yaml, .yml, .json or .hcl)")
	pf.BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	pf.BoolVar(&o.JSON, "json", false, "print results as JSON")
	pf.StringVar(&o.MetricsFile, "metrics-file", "", "write prometheus metrics to this file after the run")
	pf.IntVarP(&o.Parallelism, "parallel", "p", 1, "operations of a template to run at once")
}

// setupLogging builds the structured logger, written to stderr
func setupLogging(o *opts.RootOpts) *zerolog.Logger {
	level := zerolog.WarnLevel
	if o.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: o.Stderr}).Level(level).With().Timestamp().Logger()
	return &logger
}
