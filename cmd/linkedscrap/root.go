package main

import (
	"io"
	"time"

	"github.com/FranksOps/linkedscrap/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configFile, envFile string

	cmd := &cobra.Command{
		Use:   "linkedscrap",
		Short: "Scrape job listings for a list of search terms into CSV",
		Long: `linkedscrap reads search terms (one per line, # comments allowed), pages
through the job search results for each term, fetches every listing's
description and prints the records as CSV on stdout. Diagnostics, the
progress bar and the run report go to stderr.

Every flag can also be set in a config file or through LINKEDSCRAP_*
environment variables, e.g. LINKEDSCRAP_SEARCH_LOCATION.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.Options{
				ConfigFile: configFile,
				EnvFile:    envFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "config file (yaml, toml or json)")
	f.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	f.StringP("terms-file", "t", "search-terms.txt", "file with one search term per line")
	f.String("work-dir", ".", "directory for the downloaded page files")
	f.String("downloader", "wget", "page downloader: wget or http")
	f.String("wget-path", "wget", "wget-compatible tool invoked as <tool> <url> -O <file>")
	f.Bool("merge-terms", false, "export records from every term instead of only the last one")
	f.String("log-level", "info", "debug, info, warn or error")
	f.Bool("progress", true, "show a progress bar while fetching descriptions (terminal only)")
	f.String("report", "text", "run report on stderr: text, json or none")
	f.String("metrics-addr", "", "serve /metrics and /healthz on this address during the run")
	f.String("report-run", "", "print the report of a past run from the audit log and exit")

	f.String("search.base-url", "https://br.linkedin.com/jobs/search", "job search endpoint")
	f.String("search.location", "Brasília, Federal District, Brazil", "location filter")
	f.Int("search.page-size", 25, "results per page")
	f.Int("search.max-results", 100, "offset ceiling per term")

	f.Duration("http.timeout", 30*time.Second, "request timeout for the http downloader")
	f.String("http.fingerprint", "go", "TLS fingerprint: go, chrome, firefox, safari or random")
	f.String("http.proxies-file", "", "file with one proxy URL per line")
	f.Float64("http.requests-per-second", 0, "request rate limit, 0 for none")
	f.Bool("http.respect-robots", false, "skip URLs disallowed by robots.txt")

	f.String("audit.backend", "none", "fetch audit log: none, csv, json, sqlite or postgres")
	f.String("audit.dsn", "", "audit log file path or postgres connection string")

	return cmd
}
