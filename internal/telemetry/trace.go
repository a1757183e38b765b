package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a span through the global tracer.
//
//	ctx, span := telemetry.StartSpan(ctx, "embedapi/powerbi", "powerbi.GetEmbedInfo",
//	    attribute.String(telemetry.AttrReportID, reportID),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and marks the span failed.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span with optional attributes.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Common attribute keys. Identity attributes carry the opaque subject, never
// email addresses; traces land in shared backends.
const (
	AttrAuthSubject = "auth.subject"
	AttrAuthRole    = "auth.role"
	AttrAuthJTI     = "auth.jti"

	AttrWorkspaceID = "powerbi.workspace_id"
	AttrReportID    = "powerbi.report_id"
	AttrDatasetID   = "powerbi.dataset_id"
	AttrRLSRole     = "powerbi.rls_role"
)
