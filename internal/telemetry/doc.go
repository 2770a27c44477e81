// Package telemetry provides OpenTelemetry instrumentation for rankd.
//
// It owns the OTLP tracer and meter providers and their lifecycle. The
// exporters speak either gRPC or http/protobuf, selected by configuration.
// Telemetry is optional: when disabled, or when an exporter cannot be
// created, the rest of the process keeps running and instrumentation
// degrades to no-ops.
//
// Usage:
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tracer := tel.Tracer("rankd/optimizer")
//	meter := tel.Meter("rankd/http")
package telemetry
