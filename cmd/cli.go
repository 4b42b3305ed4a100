// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"talksync/internal/audio"
	"talksync/internal/config"
	"talksync/internal/correlate"
	"talksync/internal/log"
	"talksync/internal/spectral"
	"talksync/internal/transport"
	"talksync/pkg/build"
	"talksync/pkg/executor"

	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long serve waits for open requests on exit.
const shutdownTimeout = 5 * time.Second

// NewRootCommand builds the command tree. Configuration is loaded before
// any subcommand runs.
func NewRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()

	var (
		configPath string
		logLevel   string
		cfg        *config.Config
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.LogLevel = logLevel
			}
			level, ok := log.ParseLevel(loaded.LogLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", loaded.LogLevel)
			}
			log.SetLevel(level)
			cfg = loaded
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the YAML config file. Default is ./"+config.DefaultFileName+" if present")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"Logging level (debug, info, warn, error)")

	getConfig := func() *config.Config { return cfg }
	rootCmd.AddCommand(
		newCorrelateCommand(getConfig),
		newServeCommand(getConfig),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the command tree with args until ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newDecoder(cfg *config.Config) *audio.FFmpegDecoder {
	return audio.NewFFmpegDecoder(executor.New(), cfg.Decoder.FFmpegPath, cfg.Decoder.TempDir)
}

func newCorrelateCommand(getConfig func() *config.Config) *cobra.Command {
	var (
		window    time.Duration
		channel   int
		curvePath string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "correlate FILE1 FILE2",
		Short: "Estimate the delay to apply to FILE2 so that it lines up with FILE1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			if !cmd.Flags().Changed("window") {
				window = cfg.Correlation.WindowDuration
			}
			if !cmd.Flags().Changed("channel") {
				channel = cfg.Correlation.Channel
			}

			c := correlate.New(newDecoder(cfg), nil)
			res, err := c.CorrelateFiles(cmd.Context(), args[0], args[1], window.Seconds(), channel)
			if err != nil {
				return err
			}

			if curvePath != "" {
				if err := writeCurve(curvePath, res); err != nil {
					return err
				}
				log.Infof("correlation curve written to %s", curvePath)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(transport.NewResponse(res))
			}

			lag, peak := res.Peak()
			fmt.Fprintf(out, "peak lag:   %.3f s (correlation %.6g)\n", lag, peak)
			fmt.Fprintf(out, "sync delay: %d ms\n", res.Offset().Milliseconds())
			return nil
		},
	}

	cmd.Flags().DurationVarP(&window, "window", "w", config.DefaultWindowDuration,
		"Length of one energy window")
	cmd.Flags().IntVarP(&channel, "channel", "c", config.DefaultChannel,
		"Channel whose envelopes are correlated")
	cmd.Flags().StringVar(&curvePath, "curve", "",
		"Write the full correlation curve to this CSV file")
	cmd.Flags().BoolVar(&asJSON, "json", false,
		"Print the result as JSON")

	return cmd
}

// writeCurve stores the correlation as lag_seconds,correlation rows.
func writeCurve(path string, res *correlate.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeCurve(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeCurve(w io.Writer, res *correlate.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"lag_seconds", "correlation"}); err != nil {
		return err
	}
	for i, lag := range res.Lags {
		row := []string{
			strconv.FormatFloat(lag, 'g', -1, 64),
			strconv.FormatFloat(res.Correlation[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newServeCommand(getConfig func() *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer correlation requests over a websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}

			// One plan cache for every connection.
			c := correlate.New(newDecoder(cfg), spectral.NewConvolver(nil))
			server := transport.NewServer(addr, c, transport.Options{
				WindowDuration: cfg.Correlation.WindowSeconds(),
				Channel:        cfg.Correlation.Channel,
				ReadLimit:      cfg.Server.ReadLimit,
			})

			errc := make(chan error, 1)
			go func() { errc <- server.ListenAndServe() }()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}

			log.Infof("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", config.DefaultServerAddr,
		"Listen address")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.GetBuildFlags().String())
		},
	}
}
