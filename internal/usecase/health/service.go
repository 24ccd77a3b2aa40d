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

// Report aggregates health check results. AIEnabled reflects the
// embedding provider check: when false, clients should expect remote
// search to fail and rely on their local fallback ranker.
type Report struct {
	Status    Status
	AIEnabled bool
	Checks    map[string]string
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a health service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// Check runs health checks against the vector index and the embedding
// provider.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]string)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = "error"
	} else {
		checks["database"] = "ok"
	}

	aiEnabled := true
	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = "error"
			aiEnabled = false
		} else {
			checks["embedding"] = "ok"
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == "error" {
			status = Degraded
			break
		}
	}

	return Report{Status: status, AIEnabled: aiEnabled, Checks: checks}
}
