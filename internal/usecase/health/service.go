package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckEmpty indicates an operational but empty index: questions are
	// rejected until a document is ingested.
	CheckEmpty CheckResult = "empty"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status        Status
	Checks        map[string]CheckResult
	IndexSegments int
}

// Service coordinates health checks.
type Service struct {
	index    IndexReader
	embedder EmbeddingChecker
}

// New creates a Service. embedder can be nil.
func New(index IndexReader, embedder EmbeddingChecker) *Service {
	return &Service{index: index, embedder: embedder}
}

// Check runs health checks against all components. An empty index is not a
// failure: the service is up, it just has nothing to retrieve from yet.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	segments := s.index.Len()
	if segments > 0 {
		checks["index"] = CheckOK
	} else {
		checks["index"] = CheckEmpty
	}

	if s.embedder != nil {
		if err := s.embedder.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, IndexSegments: segments}
}
