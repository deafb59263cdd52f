package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zcline91/spam-filter/internal/api"
	"github.com/zcline91/spam-filter/internal/config"
)

type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var newAPIClient = func() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		token:      cfg.Server.Token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *apiClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable, is spamfilter serve running? (%w)", err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// extract posts a raw RFC 5322 message to /extract.
func (c *apiClient) extract(ctx context.Context, raw io.Reader) (api.ExtractResponse, error) {
	var out api.ExtractResponse
	resp, err := c.do(ctx, http.MethodPost, "/extract", "message/rfc822", raw)
	if err != nil {
		return out, err
	}
	err = decodeJSON(resp, &out)
	return out, err
}

// apiError is the error body written by the server.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		var e apiError
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			return fmt.Errorf("server returned %d: %s (%s)", resp.StatusCode, e.Error.Message, e.Error.Type)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// --- parse ---

var parseCmd = &cobra.Command{
	Use:   "parse [FILE]",
	Short: "Extract and clean one email through the running server",
	Long:  `Send a raw email (FILE, or stdin when omitted or "-") to the server's /extract endpoint and print its cleaned subject and body.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.extract(cmd.Context(), in)
		if err != nil {
			return err
		}
		printStatus("Subject", "%s", nullText(resp.Subject))
		printStatus("Body", "%s", nullText(resp.Body))
		return nil
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the server is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/health")
		if err != nil {
			printStatus("Server", "%s", colorize(colorRed, "stopped"))
			return nil
		}
		var health struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &health); err != nil {
			return err
		}
		printStatus("Server", "%s (%s)", colorize(colorGreen, "running"), client.baseURL)
		return nil
	},
}

func nullText(s *string) string {
	if s == nil {
		return colorize(colorYellow, "<null>")
	}
	return *s
}

func init() {
	serveCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(parseCmd)
}
