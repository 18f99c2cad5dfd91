// Command mfactl drives MFA enrollment and verification against an identity
// gateway from the terminal.
//
//	mfactl enroll [--qr-file FILE]
//	mfactl verify [--user-id ID]
//
// Settings come from --config or MFACTL_CONFIG (default
// ./config/mfactl.yaml, optional) and the environment, e.g.
// CLIENT_GATEWAY_BASE_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/aegis/internal/authflow"
	"github.com/shandysiswandi/aegis/internal/authflow/inbound/terminal"
	"github.com/shandysiswandi/aegis/internal/authflow/usecase"
	"github.com/shandysiswandi/aegis/internal/pkg/clock"
	"github.com/shandysiswandi/aegis/internal/pkg/config"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"github.com/shandysiswandi/aegis/internal/pkg/validator"
)

const defaultConfigPath = "./config/mfactl.yaml"

var defaults = map[string]any{
	"client.gateway.base_url":        "http://localhost:8080",
	"client.gateway.timeout_seconds": 0,
	"client.session.prefix":          "user",
	"log.level":                      "warn",
	"instrument.log_mask_fields":     []string{"code", "qrCodeBase64"},
}

var errMissingCommand = errors.New("a command is required: enroll or verify")

type flowRunner interface {
	RunEnrollment(ctx context.Context, e *usecase.Enrollment) error
	RunVerification(ctx context.Context, v *usecase.Verification) error
}

// cli holds what the commands share. newRunner is swapped in tests so the
// commands can run without a terminal.
type cli struct {
	in         io.Reader
	out        io.Writer
	configPath string
	newRunner  func(opts ...terminal.Option) flowRunner
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{in: os.Stdin, out: os.Stdout}
	c.newRunner = func(opts ...terminal.Option) flowRunner {
		return terminal.New(c.in, c.out, opts...)
	}

	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "mfactl",
		Short:         "Enroll and verify TOTP second factors against an identity gateway",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errMissingCommand
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $MFACTL_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(newEnrollCmd(c), newVerifyCmd(c))
	return root
}

func newEnrollCmd(c *cli) *cobra.Command {
	var qrFile string

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll a new session identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withUsecase(cmd.Context(), func(ctx context.Context, uc *usecase.Usecase) error {
				return c.newRunner(terminal.WithQRPath(qrFile)).RunEnrollment(ctx, uc.NewEnrollment())
			})
		},
	}
	cmd.Flags().StringVar(&qrFile, "qr-file", "mfa-qr.png", "where ctrl+s saves the QR image")
	return cmd
}

func newVerifyCmd(c *cli) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a code for an enrolled identity (a fresh identity when --user-id is omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []usecase.VerificationOption
			if userID != "" {
				opts = append(opts, usecase.WithIdentity(userID))
			}

			return c.withUsecase(cmd.Context(), func(ctx context.Context, uc *usecase.Usecase) error {
				return c.newRunner().RunVerification(ctx, uc.NewVerification(opts...))
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "identity enrolled earlier")
	return cmd
}

// withUsecase loads config and instrumentation, builds the authflow usecase
// and hands it to fn. Everything is released when fn returns.
func (c *cli) withUsecase(ctx context.Context, fn func(context.Context, *usecase.Usecase) error) error {
	path := c.configPath
	if path == "" {
		path = os.Getenv("MFACTL_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.NewViper(path, config.WithDefaults(defaults), config.WithOptionalFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer cfg.Close()

	ins, err := instrument.New(ctx, &instrument.Config{
		ServiceName: "mfactl",
		LogLevel:    cfg.GetString("log.level"),
		LogOutput:   os.Stderr,
		MaskFields:  cfg.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		return fmt.Errorf("init instrument: %w", err)
	}
	defer ins.Shutdown(context.WithoutCancel(ctx))

	v, err := validator.NewV10Validator()
	if err != nil {
		return fmt.Errorf("init validator: %w", err)
	}

	uc, err := authflow.New(authflow.Dependency{
		Config:     cfg,
		Instrument: ins,
		Clock:      clock.New(),
		Validator:  v,
	})
	if err != nil {
		slog.Error("failed to init authflow", "error", err)
		return err
	}

	return fn(ctx, uc)
}
