package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagevet/pagevet/internal/extract"
	"github.com/pagevet/pagevet/internal/logger"
	"github.com/pagevet/pagevet/internal/output"
	"github.com/pagevet/pagevet/internal/page"
	"github.com/pagevet/pagevet/internal/refs"
	"github.com/pagevet/pagevet/internal/urlx"
	"github.com/pagevet/pagevet/pkg/pagevet"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool
	pretty     bool
	outputFile string

	// Fetch flags
	concurrency int
	timeout     int
	retries     int
	rateLimit   float64
	userAgent   string
	rawContent  bool
	insecure    bool
	headful     bool
	cachePath   string
	cacheTTL    time.Duration

	// Check flags
	urlsFile  string
	fromStdin bool

	// Verify/scan/init flags
	refsFile   string
	categories []string
	dryRun     bool
	initForce  bool

	// Refresh flags
	refreshFilter string

	// Pdftext flags
	sourceURL string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pagevet",
		Short: "pagevet - headless-browser link checker and page extractor",
		Long: `pagevet fetches web pages through a headless browser, classifies how each
answered (ok, dead, redirect, paywall, login) and extracts titles, sections,
links and code blocks into compact JSON records.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	fetchCmd := &cobra.Command{
		Use:   "fetch [urls...]",
		Short: "Fetch URLs and extract structured content",
		Long:  "Fetch each URL, classify the response and emit one JSON page record per line.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFetch,
	}

	checkCmd := &cobra.Command{
		Use:   "check [urls...]",
		Short: "Check link liveness without content extraction",
		Long: `Navigate to each URL and report its classification as a single JSON report.
URLs come from arguments, from a file (--file, one per line or embedded in
markdown) or from stdin (--stdin).`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheck,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify [references.yaml]",
		Short: "Re-verify every reference in a manifest",
		Long: `Load a references manifest, re-check each tracked URL and write the updated
statuses back. A summary of the run goes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: runVerify,
	}

	scanCmd := &cobra.Command{
		Use:   "scan [files...]",
		Short: "Collect URLs from documents into a references manifest",
		Long: `Extract every URL from the given text or markdown files and merge them into
the references manifest. Already tracked URLs keep their status; new ones
start pending.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScan,
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh [urls...]",
		Short: "Pull current figures from statistics and profile pages",
		Long: `Navigate to each URL and extract its live numeric data: dollar amounts and
percentages from statistics pages, follower counts from profile pages. URLs
come from arguments, from a file (--file) or from stdin (--stdin). The full
report is a single JSON document.`,
		Args: cobra.ArbitraryArgs,
		RunE: runRefresh,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter references manifest",
		Long: `Write a references manifest template with one example entry to get a project
started. Refuses to overwrite an existing manifest unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	pdftextCmd := &cobra.Command{
		Use:   "pdftext [files...]",
		Short: "Extract structured content from decoded PDF text",
		Long: `Read already-decoded document text (for example the output of pdftotext) and
emit the same structured JSON record a fetch would produce, one per file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPdftext,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	for _, cmd := range []*cobra.Command{fetchCmd, checkCmd, verifyCmd, refreshCmd} {
		cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 4, "Concurrent browser tabs (1-20)")
		cmd.Flags().IntVarP(&timeout, "timeout", "t", 30, "Navigation timeout in seconds")
		cmd.Flags().IntVar(&retries, "retries", 1, "Retries after a failed navigation")
		cmd.Flags().Float64VarP(&rateLimit, "rate-limit", "r", 0, "Requests per second per host (0 = unlimited)")
		cmd.Flags().StringVar(&userAgent, "user-agent", "", "Override the browser user agent")
		cmd.Flags().BoolVarP(&insecure, "insecure", "k", false, "Ignore HTTPS certificate errors")
		cmd.Flags().BoolVar(&headful, "headful", false, "Run the browser with a visible window")
		cmd.Flags().StringVar(&cachePath, "cache", "", "Path to the on-disk result cache")
		cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 24*time.Hour, "How long cached results stay fresh")
	}
	fetchCmd.Flags().BoolVar(&rawContent, "raw", false, "Extract from the whole page, not just the main content region")

	for _, cmd := range []*cobra.Command{checkCmd, refreshCmd} {
		cmd.Flags().StringVar(&urlsFile, "file", "", "Read URLs from a file")
		cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read URLs from stdin")
	}
	refreshCmd.Flags().StringVar(&refreshFilter, "filter", "", "Only refresh URLs of this source kind (instagram, statista, generic)")

	verifyCmd.Flags().StringSliceVar(&categories, "category", nil, "Only verify references in these categories")
	verifyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Verify without writing the manifest back")

	scanCmd.Flags().StringVar(&refsFile, "refs", "references.yaml", "References manifest to update")

	initCmd.Flags().StringVar(&refsFile, "refs", "references.yaml", "Manifest file to create")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing manifest")

	pdftextCmd.Flags().StringVar(&sourceURL, "url", "", "Source URL to record on the page")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(pdftextCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger wires the global logger to stderr so stdout carries only
// JSON results.
func setupLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.WarnLevel
	if verbose {
		cfg.Level = logger.InfoLevel
	}
	if debug {
		cfg.Level = logger.DebugLevel
	}
	log := logger.New(cfg)
	logger.SetGlobal(log)
	return log
}

// signalContext cancels on Ctrl-C or SIGTERM so in-flight fetches stop
// and the browser shuts down cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildConfig layers command-line flags over the config file (or defaults).
func buildConfig(cmd *cobra.Command) (*pagevet.Config, error) {
	var cfg *pagevet.Config
	var err error

	if configFile != "" {
		cfg, err = pagevet.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = pagevet.DefaultConfig()
	}

	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = time.Duration(timeout) * time.Second
	}
	if cmd.Flags().Changed("retries") {
		cfg.Retries = retries
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.RateLimit.RequestsPerSecond = rateLimit
	}
	if cmd.Flags().Changed("user-agent") {
		cfg.UserAgent = userAgent
	}
	if cmd.Flags().Changed("cache") {
		cfg.Cache.Path = cachePath
	}
	if cmd.Flags().Changed("cache-ttl") {
		cfg.Cache.TTL = cacheTTL
	}
	cfg.RawContent = rawContent
	cfg.IgnoreHTTPSErrors = insecure
	cfg.Headless = !headful

	return cfg, cfg.Validate()
}

// openOutput returns the JSON writer for results plus a close function.
func openOutput() (*output.Writer, func(), error) {
	if outputFile == "" {
		return output.NewWriter(os.Stdout, pretty), func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return output.NewWriter(f, pretty), func() { f.Close() }, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := pagevet.New(cfg, log)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	for _, p := range fetcher.FetchAll(ctx, args) {
		if err := out.Write(p); err != nil {
			return err
		}
	}
	return nil
}

// collectURLs gathers target URLs from arguments, a file and stdin, in
// that order, dropping duplicates.
func collectURLs(args []string) ([]string, error) {
	urls := append([]string(nil), args...)

	if urlsFile != "" {
		data, err := os.ReadFile(urlsFile)
		if err != nil {
			return nil, err
		}
		urls = append(urls, urlx.ExtractURLs(string(data))...)
	}
	if fromStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		urls = append(urls, urlx.ExtractURLs(string(data))...)
	}

	dedup := urlx.NewDeduper(len(urls))
	out := urls[:0]
	for _, u := range urls {
		if u = strings.TrimSpace(u); u == "" || dedup.Seen(u) {
			continue
		}
		dedup.Add(u)
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no URLs given: pass arguments, --file or --stdin")
	}
	return out, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	urls, err := collectURLs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := pagevet.New(cfg, log)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	report := fetcher.CheckAll(ctx, urls)
	if err := out.Write(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d links failed", report.Failed, len(urls))
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	manifest, err := refs.Load(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := pagevet.New(cfg, log)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	summary := fetcher.VerifyAll(ctx, manifest, categories)

	if !dryRun {
		if err := manifest.Save(args[0]); err != nil {
			return err
		}
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()
	return out.Write(summary)
}

func runScan(cmd *cobra.Command, args []string) error {
	setupLogger()

	manifest, err := refs.Load(refsFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		manifest = refs.NewFile("pagevet")
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	totalAdded := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		added := manifest.Merge(urlx.ExtractURLs(string(data)), path)
		totalAdded += added
		if err := out.Write(map[string]any{"file": path, "added": added}); err != nil {
			return err
		}
	}

	manifest.SortByURL()
	if err := manifest.Save(refsFile); err != nil {
		return err
	}
	return out.Write(map[string]any{
		"refs":  refsFile,
		"added": totalAdded,
		"total": len(manifest.References),
	})
}

func runRefresh(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	urls, err := collectURLs(args)
	if err != nil {
		return err
	}
	if refreshFilter != "" {
		kept := urls[:0]
		for _, u := range urls {
			if extract.SourceKind(u) == refreshFilter {
				kept = append(kept, u)
			}
		}
		urls = kept
		if len(urls) == 0 {
			return fmt.Errorf("no URLs match filter %q", refreshFilter)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := pagevet.New(cfg, log)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	report := fetcher.RefreshAll(ctx, urls)
	refreshed := 0
	for _, r := range report.Results {
		if r.Success {
			refreshed++
		} else {
			log.Errorf("refresh failed for %s: %s", r.URL, r.Error)
		}
	}
	log.Infof("refreshed %d of %d URLs", refreshed, len(urls))
	return out.Write(report)
}

func runInit(cmd *cobra.Command, args []string) error {
	setupLogger()

	if !initForce {
		if _, err := os.Stat(refsFile); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", refsFile)
		}
	}

	manifest := refs.NewFile("pagevet")
	manifest.References = []refs.Reference{{
		URL:        "https://example.com",
		Title:      "Example Reference",
		Categories: []string{"example"},
		CitedIn:    []string{"README.md"},
		Status:     page.Pending,
	}}
	if err := manifest.Save(refsFile); err != nil {
		return err
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()
	return out.Write(map[string]any{
		"created": manifest.Meta.Created,
		"file":    refsFile,
	})
}

func runPdftext(cmd *cobra.Command, args []string) error {
	setupLogger()

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		src := sourceURL
		if src == "" || len(args) > 1 {
			src = path
		}

		text := string(data)
		var p *page.Page
		if strings.TrimSpace(text) == "" {
			p = &page.Page{
				URL:    src,
				Status: page.Dead,
				Alerts: []string{"No extractable text"},
			}
		} else {
			p = extract.FromText(text, src)
			p.Status = page.Ok
		}
		if err := out.Write(p); err != nil {
			return err
		}
	}
	return nil
}
