package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taxatlas/taxgo/internal/api"
	"github.com/taxatlas/taxgo/internal/attribution"
	"github.com/taxatlas/taxgo/internal/cache"
	"github.com/taxatlas/taxgo/internal/calculation"
	"github.com/taxatlas/taxgo/internal/config"
	"github.com/taxatlas/taxgo/internal/domain"
	"github.com/taxatlas/taxgo/internal/export"
	"github.com/taxatlas/taxgo/internal/output"
	"github.com/taxatlas/taxgo/internal/postcode"
	"github.com/taxatlas/taxgo/internal/regional"
	"github.com/taxatlas/taxgo/internal/tables"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "taxgo %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
				fmt.Fprintln(os.Stdout, bi.String())
			}
		},
	}
}

var rootCmd = &cobra.Command{
	Use:   "taxgo",
	Short: "UK household tax and fiscal attribution CLI",
	Long:  "Estimates a household's UK tax bill and maps it onto national spending and regional fiscal flows",
}

// appState holds the shared engines built from the flags on the root command.
type appState struct {
	household   *calculation.HouseholdEngine
	attribution *attribution.Engine
	regional    *regional.Engine
	store       *tables.Store
}

func buildState(cmd *cobra.Command) *appState {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	noLookup, _ := cmd.Flags().GetBool("no-postcode-lookup")

	var resolver calculation.CouncilResolver
	if !noLookup {
		resolver = postcode.NewClient()
	}

	store := tables.NewStore(dataDir)
	return &appState{
		household:   calculation.NewHouseholdEngine(resolver),
		attribution: attribution.NewEngine(store),
		regional:    regional.NewEngine(store),
		store:       store,
	}
}

func loadHousehold(inputFile string) *domain.TaxEstimateRequest {
	parser := config.NewInputParser()
	req, err := parser.LoadFromFile(inputFile)
	if err != nil {
		log.Fatal(err)
	}
	return req
}

var estimateCmd = &cobra.Command{
	Use:   "estimate [input-file]",
	Short: "Estimate a household's annual tax bill",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state := buildState(cmd)
		req := loadHousehold(args[0])

		estimate, err := state.household.Estimate(cmd.Context(), *req)
		if err != nil {
			log.Fatal(err)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			data, err := output.FormatJSON(estimate)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(string(data))
		default:
			fmt.Print(output.FormatEstimateTable(estimate))
		}
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact [input-file]",
	Short: "Show where the household's tax goes across national services",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state := buildState(cmd)
		req := loadHousehold(args[0])

		estimate, err := state.household.Estimate(cmd.Context(), *req)
		if err != nil {
			log.Fatal(err)
		}

		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		impact, err := state.attribution.ServicesImpact(estimate.TotalEstimatedTax,
			domain.DefaultRevenueYear, domain.DefaultSpendingYear, page, pageSize)
		if err != nil {
			log.Fatal(err)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			data, err := output.FormatJSON(impact)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(string(data))
		case "csv":
			csvOut, err := output.ServicesCSV(impact.Services)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Print(csvOut)
		default:
			fmt.Print(output.FormatImpactTable(impact))
		}
	},
}

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Show regional fiscal balances and implied transfers",
	Run: func(cmd *cobra.Command, args []string) {
		state := buildState(cmd)

		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		year, _ := cmd.Flags().GetString("year")
		req := domain.RegionalFlowsRequest{Year: year, Page: page, PageSize: pageSize}
		req.ApplyDefaults()

		flows, err := state.regional.RegionalFlows(req)
		if err != nil {
			log.Fatal(err)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			data, err := output.FormatJSON(flows)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(string(data))
		case "csv":
			csvOut, err := output.RegionalBalancesCSV(flows.Balances)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Print(csvOut)
		default:
			fmt.Print(output.FormatFlowsTable(flows))
		}
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [input-file]",
	Short: "Produce the full journalist export bundle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state := buildState(cmd)
		req := loadHousehold(args[0])

		exporter := export.NewExporter(state.household, state.attribution, state.regional)
		bundle, err := exporter.Build(cmd.Context(), *req)
		if err != nil {
			log.Fatal(err)
		}

		if pdfFile, _ := cmd.Flags().GetString("pdf"); pdfFile != "" {
			data, err := output.JournalistPDF(bundle)
			if err != nil {
				log.Fatal(err)
			}
			if err := os.WriteFile(pdfFile, data, 0o644); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("PDF report written to %s\n", pdfFile)
			return
		}

		data, err := output.FormatJSON(bundle)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(data))
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		var cfg config.AppConfig
		if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
			var err error
			cfg, err = config.LoadAppConfig(cfgFile)
			if err != nil {
				log.Fatal(err)
			}
		} else {
			cfg = config.DefaultAppConfig()
			if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
				cfg.DataDir = dataDir
			}
			if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
				cfg.ListenAddr = addr
			}
		}

		var resolver calculation.CouncilResolver
		if cfg.PostcodeLookup {
			client := postcode.NewClient()
			if cfg.PostcodeBaseURL != "" {
				client.BaseURL = cfg.PostcodeBaseURL
			}
			resolver = client
		}

		var responseCache cache.Cache = cache.NewMemory()
		if cfg.RedisAddr != "" {
			responseCache = cache.NewRedis(cfg.RedisAddr)
		}

		store := tables.NewStore(cfg.DataDir)
		server := api.NewServer(
			calculation.NewHouseholdEngine(resolver),
			attribution.NewEngine(store),
			regional.NewEngine(store),
			responseCache,
			version,
		)
		defer server.Limiter.Stop()

		httpServer := &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      server.Handler(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErr := make(chan error, 1)
		go func() {
			log.Printf("API listening on %s", cfg.ListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-serverErr:
			log.Printf("Error starting server: %v", err)
			return
		case <-quit:
			log.Println("Shutting down server...")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("Error during server shutdown: %v", err)
		}
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [input-file]",
	Short: "Validate a household input file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parser := config.NewInputParser()
		if _, err := parser.LoadFromFile(args[0]); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Household file %s is valid\n", args[0])
	},
}

func main() {
	rootCmd.PersistentFlags().String("data-dir", "data/processed", "Directory holding the processed data tables")
	rootCmd.PersistentFlags().String("format", "table", "Output format (table, json, csv)")
	rootCmd.PersistentFlags().Bool("no-postcode-lookup", false, "Disable the postcode lookup")

	impactCmd.Flags().Int("page", 1, "Page number")
	impactCmd.Flags().Int("page-size", 20, "Items per page")

	flowsCmd.Flags().String("year", domain.DefaultFiscalYear, "Fiscal year")
	flowsCmd.Flags().Int("page", 1, "Page number")
	flowsCmd.Flags().Int("page-size", 50, "Flows per page")

	exportCmd.Flags().String("pdf", "", "Write a PDF report to this file instead of JSON")

	serveCmd.Flags().String("config", "", "Application configuration file")
	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")

	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
