package clearance

import (
	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/GangaMannan/CustomsClearnace/internal/ledger"
	"github.com/GangaMannan/CustomsClearnace/internal/risk"
)

// SubmitRequest carries one exporter declaration.
type SubmitRequest struct {
	// Document is the raw bytes of the trade document (arbitrary binary).
	Document []byte

	// DeclaredValue is the declared invoice value in integer currency
	// units. Must be non-negative.
	DeclaredValue int64

	// Submitter is the authenticated account name recorded on the
	// ledger entry.
	Submitter string
}

// SubmitResult is the combined receipt returned once a declaration is
// anchored end to end.
type SubmitResult struct {
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Locator     string                  `json:"locator"`
	GatewayURL  string                  `json:"gateway_url,omitempty"`
	Receipt     *ledger.Receipt         `json:"receipt"`
	Channel     risk.Channel            `json:"channel"`
}

// Outcome classifies a verification run. Only OutcomeVerified means the
// document checked out end to end; every other outcome is a terminal
// negative result, distinct from transport errors, which surface as
// StageError instead.
type Outcome string

const (
	// OutcomeVerified: the ledger record exists, the bytes were
	// retrieved, and they hash back to the fingerprint.
	OutcomeVerified Outcome = "VERIFIED"

	// OutcomeNotFound: the fingerprint was never anchored. Expected for
	// unregistered or fraudulent documents; never an error.
	OutcomeNotFound Outcome = "NOT_FOUND"

	// OutcomeUnresolvableLocation: ledger proof exists but no locator is
	// known — the local index lost the entry and no override was given.
	OutcomeUnresolvableLocation Outcome = "UNRESOLVABLE_LOCATION"

	// OutcomeFetchFailed: a locator resolved but the content store does
	// not hold bytes for it.
	OutcomeFetchFailed Outcome = "FETCH_FAILED"

	// OutcomeContentMismatch: fetched bytes do not hash back to the
	// looked-up fingerprint. An integrity violation, surfaced loudly.
	OutcomeContentMismatch Outcome = "CONTENT_MISMATCH"
)

// VerifyResult is the combined output of a verification run. Record and
// Channel are populated whenever the ledger holds the fingerprint,
// regardless of whether the bytes could be located.
type VerifyResult struct {
	Outcome    Outcome        `json:"outcome"`
	Record     *ledger.Record `json:"record,omitempty"`
	Locator    string         `json:"locator,omitempty"`
	GatewayURL string         `json:"gateway_url,omitempty"`
	Channel    risk.Channel   `json:"channel,omitempty"`
	Detail     string         `json:"detail,omitempty"`

	// Document holds the fetched original bytes on OutcomeVerified.
	// Excluded from JSON; served separately by the content endpoint.
	Document []byte `json:"-"`
}
