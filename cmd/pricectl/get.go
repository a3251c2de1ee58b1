package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/price-service/internal/adapter/httpfetch"
	"github.com/user/price-service/internal/entity"
	"github.com/user/price-service/internal/extractor"
	"github.com/user/price-service/internal/usecase"
	"github.com/user/price-service/pkg/config"
	"github.com/user/price-service/pkg/logger"
)

func newGetCmd() *cobra.Command {
	var (
		timeout  time.Duration
		asJSON   bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Fetch a product page and print its price",
		Long: `Get fetches the page once, runs the site strategies and the generic
fallback, and prints the price and product name.

Examples:
  pricectl get https://www.amazon.in/dp/B0EXAMPLE
  pricectl get https://www.flipkart.com/p/itm123 --json
  pricectl get test://demo --timeout 5s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if timeout <= 0 {
				timeout = cfg.FetchTimeout()
			}

			log, err := logger.New(cmd.ErrOrStderr(), logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			catalog := extractor.DefaultCatalog()
			fetcher := httpfetch.New(timeout, cfg.UserAgentList(), log)
			prices := usecase.NewPriceExtractor(fetcher, catalog, extractor.NewValidator(cfg.Bounds()), log)

			result, err := prices.GetPrice(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s (%s, status %d)", userMessage(err), entity.KindName(err), entity.StatusCode(err))
			}
			return printResult(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Fetch timeout (default from FETCH_TIMEOUT_SECONDS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "error", "Log level written to stderr")
	return cmd
}

func userMessage(err error) string {
	var extractionErr *entity.ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Message
	}
	return err.Error()
}

func printResult(w io.Writer, result *entity.ExtractionResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	suffix := ""
	if result.IsTestMode {
		suffix = " [test mode]"
	}
	_, err := fmt.Fprintf(w, "%s: %s%.2f %s%s\n", result.ProductName, result.CurrencySymbol, result.Price, result.Currency, suffix)
	return err
}
