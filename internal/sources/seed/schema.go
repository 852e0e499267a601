package seed

// Config is the top-level structure of a seed file.
//
//	services:
//	  - id: "1"
//	    name: User Authentication API
//	    type: API
//	    status: Online
//	    endpoint: https://auth.example.com
//	    createdAt: 2024-01-01T00:00:00Z
//	events:
//	  - serviceId: "1"
//	    type: status_change
//	    status: Online
//	    message: Service came back online
//	    severity: low
//	    timestamp: 2024-01-15T10:30:00Z
type Config struct {
	Services []ServiceProps `yaml:"services"`
	Events   []EventProps   `yaml:"events"`
}

// ServiceProps is one service entry. Timestamps are RFC 3339 strings.
type ServiceProps struct {
	ID          string `yaml:"id,omitempty"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Status      string `yaml:"status,omitempty"`
	Description string `yaml:"description,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	CreatedAt   string `yaml:"createdAt,omitempty"`
	UpdatedAt   string `yaml:"updatedAt,omitempty"`
	LastCheck   string `yaml:"lastCheck,omitempty"`
}

// EventProps is one timeline entry.
type EventProps struct {
	ID        string         `yaml:"id,omitempty"`
	ServiceID string         `yaml:"serviceId"`
	Type      string         `yaml:"type"`
	Status    string         `yaml:"status"`
	Message   string         `yaml:"message"`
	Timestamp string         `yaml:"timestamp,omitempty"`
	Severity  string         `yaml:"severity,omitempty"`
	Metadata  map[string]any `yaml:"metadata,omitempty"`
}
