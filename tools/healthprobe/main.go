package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/barberbook/barberbook/libs/config"
	"github.com/barberbook/barberbook/libs/grpcx"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthprobe exits 0 when the service reports SERVING over grpc.health.v1.
// Meant for container health checks where curl is not available.
func main() {
	var (
		addr    = flag.String("addr", config.String("HEALTH_ADDR", "localhost:9090"), "grpc address")
		service = flag.String("service", "", "service name; empty checks the server as a whole")
		timeout = flag.Duration("timeout", 3*time.Second, "probe timeout")
	)
	flag.Parse()

	conn, err := grpcx.Dial(*addr, nil)
	if err != nil {
		fatal(err.Error())
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: *service})
	if err != nil {
		fatal(err.Error())
	}
	fmt.Println(resp.GetStatus().String())
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
