package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Agent() AgentRepository
	Alert() AlertRepository
	Company() CompanyRepository

	Close() error
}
