package asr

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Probe runs the standard gRPC health check against endpoint and returns the
// reported serving status.
func Probe(ctx context.Context, endpoint string, timeout time.Duration, dialer func(context.Context, string) (net.Conn, error)) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("recognizer endpoint is empty")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	conn, err := newConn(endpoint, dialer)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	if err := waitForReady(checkCtx, conn); err != nil {
		return "", fmt.Errorf("wait for recognizer readiness: %w", err)
	}

	resp, err := healthpb.NewHealthClient(conn).Check(checkCtx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return "", fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus().String(), nil
}
