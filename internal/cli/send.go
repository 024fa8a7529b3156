package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/interpolate"
	httpclient "github.com/valisehq/valise/internal/protocol/http"
	"github.com/valisehq/valise/internal/storage/filesystem"
)

// SendOptions holds options for the send command.
type SendOptions struct {
	Vars    []string
	JSON    bool
	Timeout time.Duration
}

// NewSendCommand creates the send command. It executes one endpoint from a
// collection file without starting the TUI.
func NewSendCommand() *cobra.Command {
	opts := &SendOptions{}

	cmd := &cobra.Command{
		Use:   "send COLLECTION_FILE ENDPOINT_NAME",
		Short: "Execute an endpoint from a collection file",
		Long:  "Execute a named endpoint from a collection file, with the collection's variables in scope.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Override a collection variable (format: name=value)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output response as JSON")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Request timeout")

	return cmd
}

func runSend(cmd *cobra.Command, path, endpointName string, opts *SendOptions) error {
	c, err := filesystem.OpenCollection(path)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	ep, ok := findEndpoint(c, endpointName)
	if !ok {
		return fmt.Errorf("endpoint %q not found in %s", endpointName, c.Name())
	}

	env := interpolate.FromCollection(c)
	for _, v := range opts.Vars {
		name, value, found := strings.Cut(v, "=")
		if !found {
			return fmt.Errorf("invalid --var %q, expected name=value", v)
		}
		env.SetVariable(name, value)
	}

	client := httpclient.NewClient(httpclient.WithTimeout(opts.Timeout))

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	resp, err := client.Send(ctx, ep, env)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if opts.JSON {
		return outputJSON(cmd, resp)
	}
	return outputHuman(cmd, resp)
}

// findEndpoint looks up an endpoint by name, case-insensitively.
func findEndpoint(c *core.Collection, name string) (*core.Endpoint, bool) {
	for _, ep := range c.Endpoints() {
		if strings.EqualFold(ep.Name(), name) {
			return ep, true
		}
	}
	return nil, false
}

func outputJSON(cmd *cobra.Command, resp *core.Response) error {
	headers := make(map[string]string, len(resp.Headers()))
	for _, h := range resp.Headers() {
		headers[h.Name] = h.Value
	}

	result := map[string]any{
		"status":      resp.Status().Code(),
		"status_text": resp.Status().Text(),
		"headers":     headers,
		"body":        string(resp.Body()),
		"timing_ms":   resp.Duration().Milliseconds(),
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputHuman(cmd *cobra.Command, resp *core.Response) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "HTTP %d %s\n", resp.Status().Code(), resp.Status().Text())
	fmt.Fprintf(out, "Time: %dms\n", resp.Duration().Milliseconds())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Headers:")
	for _, h := range resp.Headers() {
		fmt.Fprintf(out, "  %s: %s\n", h.Name, h.Value)
	}
	fmt.Fprintln(out)

	if len(resp.Body()) > 0 {
		fmt.Fprintln(out, "Body:")
		fmt.Fprintln(out, string(resp.Body()))
	}

	return nil
}
