package seed

// demo is the collection a fresh dashboard starts with.
const demo = `
services:
  - id: "1"
    name: User Authentication API
    type: API
    status: Online
    description: Handles user authentication and authorization
    endpoint: https://auth.democompany.com
    createdAt: "2024-01-01T00:00:00Z"
    updatedAt: "2024-01-15T10:30:00Z"
    lastCheck: "2024-01-15T10:30:00Z"
  - id: "2"
    name: Product Database
    type: Database
    status: Online
    description: Primary product catalog database
    endpoint: postgresql://products.democompany.com
    createdAt: "2024-01-01T00:00:00Z"
    updatedAt: "2024-01-15T10:29:00Z"
    lastCheck: "2024-01-15T10:29:00Z"
  - id: "3"
    name: Payment Gateway
    type: Microservice
    status: Degraded
    description: Payment processing service
    endpoint: https://payments.democompany.com
    createdAt: "2024-01-01T00:00:00Z"
    updatedAt: "2024-01-15T10:25:00Z"
    lastCheck: "2024-01-15T10:25:00Z"
  - id: "4"
    name: Redis Cache Cluster
    type: Cache
    status: Online
    description: Distributed caching layer
    endpoint: redis://cache.democompany.com
    createdAt: "2024-01-01T00:00:00Z"
    updatedAt: "2024-01-15T10:28:00Z"
    lastCheck: "2024-01-15T10:28:00Z"
  - id: "5"
    name: Monitoring Service
    type: Monitoring
    status: Offline
    description: System monitoring and alerting
    endpoint: https://monitoring.democompany.com
    createdAt: "2024-01-01T00:00:00Z"
    updatedAt: "2024-01-15T10:20:00Z"
    lastCheck: "2024-01-15T10:20:00Z"
  - id: "6"
    name: Load Balancer
    type: Infrastructure
    status: Online
    description: Traffic distribution and load balancing
    endpoint: https://lb.democompany.com
    createdAt: "2024-01-01T00:00:00Z"
    updatedAt: "2024-01-15T10:27:00Z"
    lastCheck: "2024-01-15T10:27:00Z"
events:
  - id: "1"
    serviceId: "1"
    type: status_change
    status: Online
    message: Service came back online after maintenance
    timestamp: "2024-01-15T10:30:00Z"
    severity: low
  - id: "2"
    serviceId: "3"
    type: status_change
    status: Degraded
    message: High latency detected in payment processing
    timestamp: "2024-01-15T10:25:00Z"
    severity: medium
  - id: "3"
    serviceId: "5"
    type: status_change
    status: Offline
    message: Service went offline due to network issues
    timestamp: "2024-01-15T10:20:00Z"
    severity: high
`

// Default returns the built-in demo seed.
func Default() Seed {
	config, err := Parse([]byte(demo))
	if err != nil {
		panic(err)
	}
	s, err := NewMapper().Map(config)
	if err != nil {
		panic(err)
	}
	return s
}
