package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("framework", "MICRO_FRS105"),
		attribute.String("company_name", "Moss & Barrow Ltd"),
		attribute.String("section", "balanceSheet"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "framework" && attrs[1].Key != "framework" {
		t.Fatalf("expected framework to be retained")
	}
	if attrs[0].Key != "section" && attrs[1].Key != "section" {
		t.Fatalf("expected section to be retained")
	}
}
