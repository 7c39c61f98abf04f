package shared

// BaseAggregateRoot provides a revision stamp and pending events
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version and the update timestamp
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

// CheckVersion fails with ErrConcurrencyConflict when expected is set and differs.
// Zero means the caller does not care.
func (a *BaseAggregateRoot) CheckVersion(expected int) error {
	if expected != 0 && expected != a.Version {
		return ErrConcurrencyConflict
	}
	return nil
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// PopDomainEvents returns pending events and clears them
func (a *BaseAggregateRoot) PopDomainEvents() []DomainEvent {
	events := a.domainEvents
	a.domainEvents = nil
	return events
}

// CloneRoot copies identity and version without pending events
func (a *BaseAggregateRoot) CloneRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: a.BaseEntity,
		Version:    a.Version,
	}
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}
