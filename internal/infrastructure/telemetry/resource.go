package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Resource identifies the process in exported spans and metrics.
type Resource struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// Build merges the service attributes with the SDK defaults.
func (r Resource) Build() (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(r.ServiceName)}
	if r.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(r.ServiceVersion))
	}
	if r.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentName(r.Environment))
	}
	return resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
}
