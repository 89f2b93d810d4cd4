package core

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("gradescope-cli/scrapers/gradescope/core")
