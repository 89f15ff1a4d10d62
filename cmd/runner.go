package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/mossridge/ytup/internal/auth"
	"github.com/mossridge/ytup/internal/ledger"
	"github.com/mossridge/ytup/internal/services"
	"github.com/mossridge/ytup/internal/shared"
	"github.com/mossridge/ytup/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	svc    services.MediaService // injected in tests, built lazily otherwise
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Service services.MediaService
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		svc:    opts.Service,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, uploadCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// provider builds the OAuth2 credential provider from the loaded config.
func (r *Runner) provider() (*auth.FileProvider, error) {
	return auth.NewFileProvider(r.config.Credentials.YouTube)
}

// mediaService returns the injected service or builds the authenticated
// YouTube client from the token cache.
func (r *Runner) mediaService(ctx context.Context) (services.MediaService, error) {
	if r.svc != nil {
		return r.svc, nil
	}

	provider, err := r.provider()
	if err != nil {
		return nil, err
	}
	var client *http.Client
	if client, err = provider.Client(ctx); err != nil {
		return nil, err
	}
	return services.NewYouTubeService(client, ""), nil
}

// newEngine wires an UploadEngine over the service and the configured ledger.
func (r *Runner) newEngine(svc services.MediaService) *tasks.UploadEngine {
	led := ledger.Open(r.config.Upload.LedgerPath, r.logger)
	return tasks.NewUploadEngine(svc, led, r.config.Upload, r.logger)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
