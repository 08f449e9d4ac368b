package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lydakis/getmyid"
	"github.com/lydakis/getmyid/internal/config"
	"github.com/lydakis/getmyid/internal/paths"
	"github.com/spf13/cobra"
)

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		msg := err.Error()
		if !strings.HasPrefix(msg, "getmyid: ") {
			msg = "getmyid: " + msg
		}
		fmt.Fprintln(rootStderr, msg)
		if classifyError(err) == ExitUsageErr {
			fmt.Fprintln(rootStderr, "Run 'getmyid --help' for usage.")
		}
	}
	return classifyError(err)
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "getmyid",
		Short: "Retrieve process identity from the whoami daemon",
		Long: `getmyid asks the local whoami daemon who the calling process is and
prints the identity, its IDM and config endpoints, the access token and the
kernel-verified process credentials.

Settings are read from flags, then from the config file, then defaults.

Examples:
  getmyid
  getmyid --format json
  getmyid --instance-id 7 --with-timestamp
  getmyid --async --socket /run/whoami.sock --timeout 2`,
		Version:       buildVersion,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIdentity(cmd, &f)
		},
	}
	cmd.SetOut(rootStdout)
	cmd.SetErr(rootStderr)
	cmd.SetVersionTemplate("getmyid {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return asUsage(err)
	})

	flags := cmd.Flags()
	flags.StringVarP(&f.socket, "socket", "s", getmyid.DefaultSocketPath, "Path to the whoami Unix socket")
	flags.Uint64VarP(&f.timeoutSecs, "timeout", "t", uint64(getmyid.DefaultTimeout/time.Second), "Exchange timeout in seconds")
	flags.BoolVar(&f.async, "async", false, "Use the async client")
	flags.StringVarP(&f.format, "format", "f", config.FormatText, "Output format: text, json or yaml")
	flags.Uint64VarP(&f.instanceID, "instance-id", "i", 0, "Instance ID to send in runner context")
	flags.BoolVar(&f.withTimestamp, "with-timestamp", false, "Include the current timestamp in runner context")
	flags.StringVar(&f.protocol, "protocol", getmyid.ProtocolAuto.String(), "Reply shapes to accept: auto, flat or nested")
	flags.StringVar(&f.encoding, "encoding", string(getmyid.EncodingJSON), "Payload encoding: json or msgpack")
	cmd.PersistentFlags().StringVar(&f.configPath, "config", "", "Config file (default "+paths.ConfigFile()+")")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Debug logging on stderr")

	cmd.AddCommand(configCmd(&f))
	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	return asUsage(cobra.NoArgs(cmd, args))
}

func runIdentity(cmd *cobra.Command, f *rootFlags) error {
	fileCfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}

	builder, format, err := resolveSettings(cmd, f, fileCfg)
	if err != nil {
		return asUsage(err)
	}
	builder = builder.Logger(newLogger(f.verbose))
	req := buildRunnerRequest(cmd, f, fileCfg)

	var id *getmyid.Identity
	if f.async {
		client, err := builder.BuildAsync()
		if err != nil {
			return err
		}
		id, err = client.GetIdentityWithRunner(cmd.Context(), req).Wait()
		if err != nil {
			return err
		}
	} else {
		client, err := builder.Build()
		if err != nil {
			return err
		}
		id, err = client.GetIdentityWithRunner(req)
		if err != nil {
			return err
		}
	}

	return renderIdentity(cmd.OutOrStdout(), format, id, f.async)
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		return nil, asUsage(err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, asUsage(fmt.Errorf("invalid config: %w", err))
	}
	return cfg, nil
}

// resolveSettings layers flags over the config file over library defaults.
func resolveSettings(cmd *cobra.Command, f *rootFlags, fileCfg *config.Config) (getmyid.Builder, string, error) {
	b := getmyid.NewBuilder()
	changed := cmd.Flags().Changed

	socket := fileCfg.SocketPath
	if changed("socket") || socket == "" {
		socket = f.socket
	}
	b = b.SocketPath(socket)

	if changed("timeout") {
		b = b.Timeout(time.Duration(f.timeoutSecs) * time.Second)
	} else if d, _ := fileCfg.TimeoutDuration(); d > 0 {
		b = b.Timeout(d)
	}

	protocolName := fileCfg.Protocol
	if changed("protocol") || protocolName == "" {
		protocolName = f.protocol
	}
	protocol, err := getmyid.ParseProtocol(protocolName)
	if err != nil {
		return b, "", err
	}
	b = b.Protocol(protocol)

	encoding := fileCfg.Encoding
	if changed("encoding") || encoding == "" {
		encoding = f.encoding
	}
	b = b.Encoding(getmyid.Encoding(encoding))

	format := fileCfg.Format
	if changed("format") || format == "" {
		format = f.format
	}
	if err := config.ValidateFormat(format); err != nil {
		return b, "", err
	}
	return b, format, nil
}

// buildRunnerRequest returns nil unless an instance id or a timestamp was
// asked for, so plain invocations talk to identity-only daemons.
func buildRunnerRequest(cmd *cobra.Command, f *rootFlags, fileCfg *config.Config) *getmyid.RunnerRequest {
	runner := fileCfg.Runner
	if cmd.Flags().Changed("instance-id") {
		runner.InstanceID = &f.instanceID
	}
	runner.WithTimestamp = runner.WithTimestamp || f.withTimestamp
	if !runner.HasContext() {
		return nil
	}

	req := getmyid.NewRunnerRequest()
	if runner.InstanceID != nil {
		req = req.WithInstanceID(*runner.InstanceID)
	}
	if runner.WithTimestamp {
		req = req.WithCurrentTimestamp()
	}
	return &req
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(rootStderr, &slog.HandlerOptions{Level: level}))
}
