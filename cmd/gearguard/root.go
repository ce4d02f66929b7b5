package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gearguard/internal/adapters/client"
	"gearguard/internal/core/domain"
	"gearguard/internal/core/workflow"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliConfig is read from the environment (and .env when present)
type cliConfig struct {
	APIURL string `env:"GEARGUARD_API_URL" envDefault:"http://localhost:3000"`
	Token  string `env:"GEARGUARD_TOKEN"`
}

// app is shared by every subcommand
type app struct {
	cfg     cliConfig
	verbose bool
	yes     bool
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	logger  *zap.Logger
	// newAPI is replaced in tests
	newAPI func(cfg cliConfig) *client.Client
}

func newApp() *app {
	return &app{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		logger: zap.NewNop(),
		newAPI: func(cfg cliConfig) *client.Client {
			return client.New(cfg.APIURL, client.WithToken(cfg.Token))
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gearguard",
		Short:         "GearGuard maintenance board from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			if err := env.Parse(&a.cfg); err != nil {
				return errors.Wrap(err, "parse environment")
			}
			if a.verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				a.logger = logger
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log controller activity to stderr")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newBoardCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newCalendarCmd(a))
	cmd.AddCommand(newCreateCmd(a))
	cmd.AddCommand(newMoveCmd(a))
	cmd.AddCommand(newAssignCmd(a))
	cmd.AddCommand(newStartCmd(a))
	cmd.AddCommand(newRepairCmd(a))
	cmd.AddCommand(newScrapCmd(a))
	cmd.AddCommand(newTechniciansCmd(a))
	return cmd
}

// Execute runs the CLI
func Execute() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// api returns a client that requires a token
func (a *app) api() (*client.Client, error) {
	if strings.TrimSpace(a.cfg.Token) == "" {
		return nil, errors.New("GEARGUARD_TOKEN is not set; run `gearguard login` first")
	}
	return a.newAPI(a.cfg), nil
}

// controller loads the board for the token's user
func (a *app) controller(ctx context.Context, opts ...workflow.Option) (*workflow.Controller, error) {
	api, err := a.api()
	if err != nil {
		return nil, err
	}
	me, err := api.Me(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "who am I")
	}

	opts = append([]workflow.Option{
		workflow.WithLogger(a.logger),
		workflow.WithNotifier(workflow.NotifierFunc(a.notify)),
		workflow.WithConfirmer(workflow.ConfirmerFunc(a.confirm)),
	}, opts...)
	ctrl := workflow.NewController(api, me.Viewer(), opts...)
	if err := ctrl.Load(ctx); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (a *app) notify(level workflow.Level, message string) {
	fmt.Fprintf(a.errOut, "[%s] %s\n", level, message)
}

// confirm asks on stdin unless --yes was given
func (a *app) confirm(_ context.Context, prompt string) bool {
	if a.yes {
		return true
	}
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func parseStage(s string) (domain.Stage, error) {
	stage := domain.Stage(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !stage.Valid() {
		return "", errors.Errorf("unknown stage %q (NEW, IN_PROGRESS, REPAIRED, SCRAP)", s)
	}
	return stage, nil
}
