package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/loopdial/loopdial/internal/config"
	http "github.com/loopdial/loopdial/internal/http"
	"github.com/loopdial/loopdial/internal/output"
	"github.com/loopdial/loopdial/internal/resolver"
	"github.com/loopdial/loopdial/internal/stats"
	"github.com/loopdial/loopdial/pkg/jsonschema"
)

// addRequestFlags registers the flags shared by every request command.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	cmd.Flags().DurationP("timeout", "t", 30*time.Second, "Request timeout")
	cmd.Flags().Duration("probe-timeout", resolver.DefaultProbeTimeout, "Timeout for each loopback connectivity probe")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().IntP("repeat", "n", 1, "Send the request N times and print a latency summary")
	cmd.Flags().String("extract", "", "Print only this gjson path from a JSON response body")
	cmd.Flags().String("schema", "", "Validate the response body against this JSON Schema file")
	cmd.Flags().String("config", "", "Path to a profiles config file")
	cmd.Flags().String("profile", "", "Profile name from the config file")
}

// executeRequest runs one request command end to end: flag handling, profile
// resolution, client construction, dispatch and output.
func executeRequest(cmd *cobra.Command, method, rawURL, body string) error {
	flags := cmd.Flags()
	headers, _ := flags.GetStringArray("header")
	timeout, _ := flags.GetDuration("timeout")
	probeTimeout, _ := flags.GetDuration("probe-timeout")
	verbose, _ := flags.GetBool("verbose")
	noColor, _ := flags.GetBool("no-color")
	repeat, _ := flags.GetInt("repeat")
	extract, _ := flags.GetString("extract")
	schemaPath, _ := flags.GetString("schema")
	configPath, _ := flags.GetString("config")
	profileName, _ := flags.GetString("profile")

	options := []http.ClientOption{
		http.WithTimeout(timeout),
	}

	var baseURL, path string
	if profileName != "" {
		if configPath == "" {
			return fmt.Errorf("--profile requires --config")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		profile, err := cfg.Profile(profileName)
		if err != nil {
			return err
		}

		baseURL = profile.BaseURL
		path = rawURL
		timeout = profile.TimeoutDuration(timeout)
		probeTimeout = profile.ProbeTimeoutDuration(probeTimeout)
		options = append(options, http.WithTimeout(timeout))
		for key, value := range profile.Headers {
			options = append(options, http.WithHeader(key, value))
		}
	} else {
		baseURL, path = splitURL(rawURL)
	}

	options = append(options,
		http.WithBaseURL(baseURL),
		http.WithResolver(resolver.New(resolver.WithProbeTimeout(probeTimeout))),
	)

	client := http.NewClient(options...)

	req := http.NewRequest(method, path)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			req.WithHeader(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		}
	}
	if body != "" {
		req.WithBody(body)
	}

	formatter := output.NewFormatter(verbose, noColor)
	out := cmd.OutOrStdout()

	if repeat > 1 {
		// Repeat mode prints only the latency summary, so per-response
		// flags would be silently ignored; refuse them instead.
		if extract != "" || schemaPath != "" {
			return fmt.Errorf("--repeat cannot be combined with --extract or --schema")
		}
		return runRepeated(cmd.Context(), client, req, repeat, out)
	}

	// Extract mode prints nothing but the extracted value, so it stays
	// usable in pipelines.
	if extract == "" {
		fmt.Fprint(out, formatter.FormatRequest(req, baseURL))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	resp, err := client.Do(ctx, req)
	if err != nil {
		// An error can still carry an annotated response; show it before
		// failing so redirect-policy errors are not silent.
		if resp != nil {
			fmt.Fprint(out, formatter.FormatResponse(resp))
		}
		return err
	}

	if extract != "" {
		result := resp.GetJSON(extract)
		if !result.Exists() {
			return fmt.Errorf("path %q not found in response body", extract)
		}
		fmt.Fprintln(out, result.String())
		return nil
	}

	fmt.Fprint(out, formatter.FormatResponse(resp))

	if schemaPath != "" {
		return validateAgainstSchema(resp, schemaPath, formatter, out)
	}

	return nil
}

// runRepeated sends the request repeat times and prints a latency summary
// instead of the individual responses.
func runRepeated(ctx context.Context, client *http.Client, req *http.Request, repeat int, out io.Writer) error {
	summary := stats.NewSummary()

	for i := 0; i < repeat; i++ {
		resp, err := client.Do(ctx, req)
		if err != nil {
			summary.RecordError()
			continue
		}
		summary.Record(resp.Duration)
	}

	fmt.Fprint(out, summary.String())

	if summary.Errors() == repeat {
		return fmt.Errorf("all %d requests failed", repeat)
	}
	return nil
}

// validateAgainstSchema checks the response body against a JSON Schema file
// and fails the command when the body does not conform.
func validateAgainstSchema(resp *http.Response, schemaPath string, formatter *output.Formatter, out io.Writer) error {
	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("reading schema file: %w", err)
	}

	valid, violations, err := jsonschema.Validate(resp.GetBodyAsString(), string(schemaBytes))
	if err != nil {
		return err
	}
	if !valid {
		for _, violation := range violations {
			fmt.Fprint(out, formatter.FormatError(violation))
		}
		return fmt.Errorf("response body failed schema validation")
	}

	fmt.Fprintln(out, "schema: ok")
	return nil
}

// splitURL splits a raw URL into the base URL for the client and the path
// (plus query and fragment) for the request. A missing scheme defaults to
// http.
func splitURL(rawURL string) (string, string) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "http://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, "/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	if parsed.User != nil {
		baseURL = fmt.Sprintf("%s://%s@%s", parsed.Scheme, parsed.User.String(), parsed.Host)
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	if parsed.Fragment != "" {
		path += "#" + parsed.Fragment
	}

	return baseURL, path
}
