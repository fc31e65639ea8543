package constants

// JobStatus is the canonical status for a document extraction job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"    // queued for processing
	JobStatusRunning   JobStatus = "RUNNING"   // in progress
	JobStatusRecovered JobStatus = "RECOVERED" // stage 1 completed (text recovered)
	JobStatusFieldsOK  JobStatus = "FIELDS_OK" // stage 2 completed (fields classified)
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// IDState tracks tender identifier resolution for a single record.
type IDState string

const (
	IDUnresolved IDState = "UNRESOLVED"
	IDExtracted  IDState = "EXTRACTED"
	IDGenerated  IDState = "GENERATED"
	IDFinalized  IDState = "FINALIZED"
)

// Provenance records where a tender identifier came from.
type Provenance string

const (
	ProvenanceExtracted Provenance = "EXTRACTED"
	ProvenanceGenerated Provenance = "GENERATED"
	// ProvenanceDegraded marks an identifier issued by the explicit
	// degraded fallback when the counter store is unusable.
	ProvenanceDegraded Provenance = "DEGRADED"
)
