// Command healthcheck probes a local KrishiAI server for container health checks.
// It exits 0 when the server reports itself usable and 1 otherwise.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"

	httphandler "github.com/ericfisherdev/krishiai/internal/adapter/driving/http"
)

const defaultAddr = "127.0.0.1:8080"

type flags struct {
	Addr    string        `name:"addr" env:"KRISHIAI_LISTEN_ADDR" help:"Server listen address."`
	Strict  bool          `name:"strict" help:"Treat a degraded server (no AI keys) as unhealthy."`
	Timeout time.Duration `name:"timeout" default:"2s" help:"Request timeout."`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	var f flags
	parser, err := kong.New(&f, kong.Name("healthcheck"), kong.Writers(out, out))
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	status, err := probe(normalizeAddr(f.Addr), f.Timeout)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	fmt.Fprintln(out, status)
	if status == "unavailable" || (f.Strict && status != "ok") {
		return 1
	}
	return 0
}

// probe fetches the health endpoint and returns the reported status.
func probe(addr string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return "", fmt.Errorf("request health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body httphandler.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode health response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK && body.Status == "" {
		body.Status = "unavailable"
	}
	return body.Status, nil
}

// normalizeAddr points the probe at loopback when the server binds every
// interface, since the check runs inside the server's own container.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
