package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/devcite/pkg/citation"
	"github.com/coolbeans/devcite/pkg/config"
	"github.com/coolbeans/devcite/pkg/document"
	"github.com/coolbeans/devcite/pkg/registry"
	"github.com/coolbeans/devcite/pkg/render"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "devcite",
		Short: "Development citation extractor and resolver",
		Long: `Devcite extracts development citation markers from generated text,
resolves the referenced documents from a content service, and rewrites
the text with stable numbered references.

It understands [Dev ID: xyz] and [DEVID - xyz] markers out of the box,
plus any custom marker syntax loaded from YAML syntax files.`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(syntaxesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract citation markers from text",
		Long: `Extract scans text for development citation markers and prints the
distinct document ids in order of first appearance. Reads from stdin
when no file is given or the file is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			text, err := readInput(args)
			if err != nil {
				return err
			}

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			extractor, err := buildExtractor(cfg)
			if err != nil {
				return err
			}

			markers := extractor.Extract(text)
			if asJSON {
				return printJSON(markers)
			}
			if len(markers) == 0 {
				fmt.Println("No citation markers found.")
				return nil
			}
			for _, marker := range markers {
				fmt.Printf("%s\t(%s at offset %d)\n", marker.ID, marker.Syntax, marker.Offset)
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Output markers as JSON")
	return cmd
}

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Resolve cited documents and build a numbered registry",
		Long: `Resolve extracts markers from text, fetches each cited document from
the content service, and follows citations inside fetched documents
breadth-first. Ids keep their numbers even when a fetch fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			baseURL, _ := cmd.Flags().GetString("base-url")
			maxDocuments, _ := cmd.Flags().GetInt("max-documents")

			text, err := readInput(args)
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			builder, _, err := buildBuilder(cfg, logger, baseURL, maxDocuments)
			if err != nil {
				return err
			}

			reg, report := builder.BuildFromText(cmd.Context(), text)
			if asJSON {
				return printJSON(resolveOutput{Citations: reg.Citations(), Report: report})
			}
			printReport(reg, report)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Output registry and report as JSON")
	cmd.Flags().String("base-url", "", "Content service base URL (overrides config)")
	cmd.Flags().Int("max-documents", 0, "Cap on fetched documents (overrides config)")
	return cmd
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Resolve citations and rewrite text with numbered references",
		Long: `Render resolves the cited documents like the resolve command, then
rewrites the text replacing each marker with its [n] reference, and
appends a reference list. Markers for unresolved and unfetched ids
are kept verbatim.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, _ := cmd.Flags().GetString("base-url")
			maxDocuments, _ := cmd.Flags().GetInt("max-documents")
			plainText, _ := cmd.Flags().GetBool("text")

			text, err := readInput(args)
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			builder, extractor, err := buildBuilder(cfg, logger, baseURL, maxDocuments)
			if err != nil {
				return err
			}

			reg, report := builder.BuildFromText(cmd.Context(), text)
			if report.Failure != "" {
				fmt.Fprintf(os.Stderr, "warning: build stopped early: %s\n", report.Failure)
			}

			binding := render.Bind(text, extractor, reg)
			if plainText {
				fmt.Println(binding.Text())
			} else {
				fmt.Println(binding.Markdown())
			}
			return nil
		},
	}

	cmd.Flags().String("base-url", "", "Content service base URL (overrides config)")
	cmd.Flags().Int("max-documents", 0, "Cap on fetched documents (overrides config)")
	cmd.Flags().Bool("text", false, "Output rewritten text without the reference list")
	return cmd
}

func syntaxesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "syntaxes",
		Short: "List registered marker syntaxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			syntaxRegistry, err := buildSyntaxRegistry(cfg)
			if err != nil {
				return err
			}
			for _, syntaxName := range syntaxRegistry.List() {
				fmt.Println(syntaxName)
			}
			return nil
		},
	}
}

// resolveOutput is the JSON shape of the resolve command.
type resolveOutput struct {
	Citations []citation.Citation `json:"citations"`
	Report    *registry.Report    `json:"report"`
}

// readInput returns the contents of the named file, or stdin when no file
// is given or the name is "-".
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

// loadConfig reads the --config file when given, otherwise returns defaults,
// plus a logger honoring --verbose.
func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	configPath, _ := cmd.Flags().GetString("config")

	logger := zap.NewNop()
	if verbose {
		developmentLogger, err := zap.NewDevelopment()
		if err != nil {
			return config.Config{}, nil, fmt.Errorf("creating logger: %w", err)
		}
		logger = developmentLogger
	}

	if configPath == "" {
		return config.Default(), logger, nil
	}
	loaded, err := config.Load(configPath)
	if err != nil {
		return loaded, nil, err
	}
	return loaded, logger, nil
}

// buildSyntaxRegistry creates a syntax registry with the builtin marker
// syntaxes plus any YAML syntax files from the configured directory.
func buildSyntaxRegistry(cfg config.Config) (*citation.SyntaxRegistry, error) {
	syntaxRegistry := citation.NewSyntaxRegistry()
	if cfg.SyntaxDir != "" {
		if err := syntaxRegistry.LoadDirectory(cfg.SyntaxDir); err != nil {
			return nil, fmt.Errorf("loading syntax directory: %w", err)
		}
	}
	return syntaxRegistry, nil
}

func buildExtractor(cfg config.Config) (*citation.Extractor, error) {
	syntaxRegistry, err := buildSyntaxRegistry(cfg)
	if err != nil {
		return nil, err
	}
	return syntaxRegistry.Extractor(), nil
}

// buildBuilder wires the config into a resolver-backed registry builder.
// Flag values override the config when non-zero.
func buildBuilder(cfg config.Config, logger *zap.Logger, baseURL string, maxDocuments int) (*registry.Builder, *citation.Extractor, error) {
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if maxDocuments != 0 {
		cfg.MaxDocuments = maxDocuments
	}
	if cfg.BaseURL == "" {
		return nil, nil, fmt.Errorf("no content service base URL; set base_url in the config file or pass --base-url")
	}

	resolverConfig, err := cfg.ResolverConfig()
	if err != nil {
		return nil, nil, err
	}
	resolver := document.NewResolver(resolverConfig, logger)

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, nil, err
	}

	builder := registry.NewBuilder(resolver, registry.BuilderConfig{
		Extractor:    extractor,
		MaxDocuments: cfg.MaxDocuments,
		Logger:       logger,
	})
	return builder, extractor, nil
}

func printJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// printReport writes a human-readable summary of a registry build.
func printReport(reg *registry.Registry, report *registry.Report) {
	fmt.Printf("Discovered %d citation(s): %d resolved, %d unresolved, %d skipped\n",
		report.TotalDiscovered, report.ResolvedCount, report.UnresolvedCount, report.SkippedCount)
	if report.Cancelled {
		fmt.Println("Build was cancelled before the citation frontier drained.")
	}
	if report.Failure != "" {
		fmt.Printf("Build stopped early: %s\n", report.Failure)
	}
	fmt.Println()

	for _, cited := range reg.Citations() {
		doc, resolved := reg.DocumentFor(cited.ID)
		if resolved {
			title := doc.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  [%d] %s  %s\n", cited.Number, cited.ID, title)
		} else {
			fmt.Printf("  [%d] %s  (unresolved)\n", cited.Number, cited.ID)
		}
	}
	if report.Elapsed > 0 {
		fmt.Printf("\nCompleted in %s\n", report.Elapsed.Round(time.Millisecond))
	}
}
