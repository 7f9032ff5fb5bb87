// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

/*
Package supervisor provides process supervision for the ingest API and
both ETL binaries using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the application. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation,
and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("ugc-pipeline")
	├── DataSupervisor ("data-layer")
	│   └── sink connection(s): DuckDB or MongoDB, and the spill file
	├── MessagingSupervisor ("messaging-layer")
	│   └── bus consumer loop (logbus or brokerbus)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (ingest/read API only)

This hierarchy ensures that:
  - A lost bus connection doesn't take down the HTTP server
  - A sink outage does not crash the bus consumer loop: it retries the
    load with backoff and leaves the batch uncommitted on the bus
  - Each layer can restart independently

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Services are organized into logical groups
  - Child supervisor failures don't propagate upward
  - Each layer has independent failure counting

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs service starts, stops, failures, and restarts
  - Event hooks via sutureslog adapter

# Usage Example

Basic setup in main.go:

	import (
	    "log/slog"
	    "github.com/practixhq/ugc-pipeline/internal/supervisor"
	)

	func main() {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        log.Fatal(err)
	    }

	    tree.AddAPIService(httpServerService)
	    tree.AddMessagingService(busConsumerService)
	    tree.AddDataService(sinkService)

	    ctx := context.Background()
	    if err := tree.Serve(ctx); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

Background operation:

	errChan := tree.ServeBackground(ctx)
	// do other setup...
	if err := <-errChan; err != nil {
	    log.Printf("Supervisor error: %v", err)
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,
	    FailureDecay:     30.0,
	    FailureBackoff:   15 * time.Second,
	    ShutdownTimeout:  10 * time.Second,
	}

Default values match suture's production-ready defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

# Failure Handling

The supervisor uses a failure counter with exponential decay:

1. Each service failure increments the counter
2. Counter decays exponentially over time (FailureDecay seconds)
3. When counter exceeds FailureThreshold, supervisor enters backoff
4. During backoff, restarts are delayed by FailureBackoff duration
5. If failures continue, the child supervisor may be restarted by parent

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: Service stopped cleanly, will not be restarted
  - Return error: Service crashed, will be restarted
  - Context canceled: Shutdown requested, return promptly

# What Is NOT Supervised

DuckDB is intentionally not supervised directly:
  - It's an embedded library, not a long-running service
  - Connections are managed by the olapstore package
  - Crashes in DuckDB would require process restart anyway

The OLAP ETL's spill file is its own durability mechanism and requires
no supervision; the OLAP loop writes it synchronously when its context
is canceled, before its Serve returns.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

Common causes:
  - Goroutines not respecting context cancellation
  - Blocked network I/O without deadlines
  - Mutex deadlocks during shutdown

# Thread Safety

The SupervisorTree is safe for concurrent use:
  - Services can be added from any goroutine
  - Remove operations are synchronized
  - Multiple services can crash simultaneously

# See Also

  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
