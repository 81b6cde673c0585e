// Command catalogctl inspects and edits the catalog backend from a terminal.
// It drives the same list view controllers as the dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/DukeRupert/catalog-admin/internal/api"
	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/service"
	"github.com/DukeRupert/catalog-admin/internal/validation"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	baseURL  string
	token    string
	timeout  time.Duration
	json     bool
	verbose  bool
	pageSize int
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// catalog connects to the backend. Callers must Close the result.
func (o *options) catalog(cmd *cobra.Command) (*service.Catalog, error) {
	logger := o.logger(cmd)
	client, err := api.New(api.Config{
		BaseURL:    o.baseURL,
		Token:      o.token,
		Timeout:    o.timeout,
		MaxRetries: 2,
	}, logger)
	if err != nil {
		return nil, err
	}
	return service.NewCatalog(client, service.CatalogConfig{
		PageSize:  o.pageSize,
		Validator: validation.New(),
	}, logger), nil
}

// newRootCmd builds the command tree. Output goes to cmd.OutOrStdout so
// tests can capture it.
func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Inspect and edit the catalog backend",
		Long: `catalogctl talks to the same backend API as the admin dashboard.

Entities: categories, subcategories, products, variants, blogs, images.
The API URL and token default to API_BASE_URL and API_TOKEN (a .env file
in the working directory is loaded first).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.baseURL, "api", os.Getenv("API_BASE_URL"), "backend API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("API_TOKEN"), "backend API bearer token")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "per-request timeout")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of tables")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log backend calls to stderr")

	root.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newDeleteCmd(opts),
		newCreateCmd(opts),
		newUploadCmd(opts),
	)
	return root
}

func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// describe turns an error into the message the dashboard would show.
func describe(err error) string {
	var (
		ve *domain.ValidationError
		fe *domain.FetchError
		me *domain.MutationError
		de *domain.Error
	)
	switch {
	case errors.As(err, &ve):
		msgs := make([]string, 0, len(ve.Fields))
		for _, msg := range ve.Fields {
			msgs = append(msgs, msg)
		}
		sort.Strings(msgs)
		return "invalid input: " + strings.Join(msgs, "; ")
	case errors.As(err, &fe), errors.As(err, &me), errors.As(err, &de):
		return domain.ErrorMessage(err)
	}
	return err.Error()
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}
