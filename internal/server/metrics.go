package server

import "sync"

// Metrics holds application metrics
type Metrics struct {
	mu sync.RWMutex

	// Recipient lifecycle metrics
	recipientsCreatedTotal int64
	recipientsUpdatedTotal int64
	recipientsDeletedTotal int64

	// Account metrics
	signupsTotal      int64
	authFailuresTotal int64

	// Export metrics
	exportsTotal       int64
	exportErrorsTotal  int64
	exportedRecipients int64

	// System metrics
	requestsTotal    int64
	requestErrors5xx int64
	requestErrors4xx int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a completed HTTP request by status class
func (m *Metrics) RecordRequest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++
	switch {
	case status >= 500:
		m.requestErrors5xx++
	case status >= 400:
		m.requestErrors4xx++
	}
}

// RecordRecipientCreated records a successful recipient creation
func (m *Metrics) RecordRecipientCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipientsCreatedTotal++
}

// RecordRecipientUpdated records a successful recipient update
func (m *Metrics) RecordRecipientUpdated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipientsUpdatedTotal++
}

// RecordRecipientDeleted records a successful recipient deletion
func (m *Metrics) RecordRecipientDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipientsDeletedTotal++
}

// RecordSignup records a successful account registration
func (m *Metrics) RecordSignup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signupsTotal++
}

// RecordAuthFailure records a rejected Basic auth attempt
func (m *Metrics) RecordAuthFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authFailuresTotal++
}

// RecordExport records a snapshot export attempt
func (m *Metrics) RecordExport(recipients int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.exportErrorsTotal++
		return
	}
	m.exportsTotal++
	m.exportedRecipients = int64(recipients)
}

// MetricsSnapshot is a point-in-time copy of all counters
type MetricsSnapshot struct {
	RecipientsCreatedTotal int64
	RecipientsUpdatedTotal int64
	RecipientsDeletedTotal int64
	SignupsTotal           int64
	AuthFailuresTotal      int64
	ExportsTotal           int64
	ExportErrorsTotal      int64
	ExportedRecipients     int64
	RequestsTotal          int64
	RequestErrors5xx       int64
	RequestErrors4xx       int64
}

// Snapshot returns a consistent copy of the current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		RecipientsCreatedTotal: m.recipientsCreatedTotal,
		RecipientsUpdatedTotal: m.recipientsUpdatedTotal,
		RecipientsDeletedTotal: m.recipientsDeletedTotal,
		SignupsTotal:           m.signupsTotal,
		AuthFailuresTotal:      m.authFailuresTotal,
		ExportsTotal:           m.exportsTotal,
		ExportErrorsTotal:      m.exportErrorsTotal,
		ExportedRecipients:     m.exportedRecipients,
		RequestsTotal:          m.requestsTotal,
		RequestErrors5xx:       m.requestErrors5xx,
		RequestErrors4xx:       m.requestErrors4xx,
	}
}
