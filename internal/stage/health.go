package stage

// Health summarizes the readiness of a pipeline stage's collaborator.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record for the named stage.
func Healthy(name Name) Health {
	return Health{Name: string(name), Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name Name, detail string) Health {
	return Health{Name: string(name), Ready: false, Detail: detail}
}
