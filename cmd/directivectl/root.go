package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	directives "github.com/goliatone/go-directives"
	"github.com/goliatone/go-directives/pkg/store"
)

type rootOptions struct {
	catalog     string
	logLevel    string
	rulesEngine string
	noRules     bool
	now         string
	query       string
	slug        string
	homepage    bool
	published   bool

	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "directivectl",
		Short:        "Inspect and render component directives in page content",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := zerolog.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", opts.logLevel, err)
			}
			opts.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
				Level(level).
				With().Timestamp().Logger()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.catalog, "catalog", "", "YAML catalog of components, promotions and promo codes")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.rulesEngine, "rules-engine", directives.RulesEngineExpr, "display rule engine (expr, cel, js)")
	flags.BoolVar(&opts.noRules, "no-rules", false, "skip settings.visibleWhen evaluation")
	flags.StringVar(&opts.now, "now", "", "RFC3339 time used for display rules and promotion windows")
	flags.StringVar(&opts.query, "query", "", "gjson path applied to the JSON output")

	root.AddCommand(
		newParseCmd(opts),
		newRenderCmd(opts),
		newInspectCmd(opts),
		newSerializeCmd(opts),
		newPaletteCmd(opts),
	)
	return root
}

func (o *rootOptions) clock() (func() time.Time, error) {
	if o.now == "" {
		return time.Now, nil
	}
	at, err := time.Parse(time.RFC3339, o.now)
	if err != nil {
		return nil, fmt.Errorf("invalid --now %q: %w", o.now, err)
	}
	return func() time.Time { return at }, nil
}

func (o *rootOptions) engine(requireCatalog bool) (*directives.Engine, error) {
	clock, err := o.clock()
	if err != nil {
		return nil, err
	}
	catalog := &store.Catalog{}
	if o.catalog != "" {
		catalog, err = store.LoadCatalog(o.catalog)
		if err != nil {
			return nil, err
		}
	} else if requireCatalog {
		return nil, fmt.Errorf("--catalog is required")
	}
	components, promotions := catalog.Stores(store.WithPromotionClock(clock))

	engineOpts := []directives.Option{
		directives.WithLogger(directives.NewZerologLogger(o.logger)),
		directives.WithPromotionStore(promotions),
		directives.WithRulesEngine(o.rulesEngine),
		directives.WithClock(clock),
	}
	if o.noRules {
		engineOpts = append(engineOpts, directives.WithoutDisplayRules())
	}
	return directives.New(components, engineOpts...)
}

func (o *rootOptions) page() directives.PageContext {
	return directives.PageContext{
		Slug:       o.slug,
		IsHomepage: o.homepage,
		Published:  o.published,
	}
}

// writeJSON prints value indented, or the --query selection when set.
func (o *rootOptions) writeJSON(out io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	if o.query != "" {
		result := gjson.GetBytes(data, o.query)
		if !result.Exists() {
			return fmt.Errorf("query %q matched nothing", o.query)
		}
		_, err = fmt.Fprintln(out, result.String())
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
