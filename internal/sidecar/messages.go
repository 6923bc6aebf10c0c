package sidecar

// SendBundleRequest wraps the signed, serialized transactions making
// up one atomic bundle. Transactions already carry the tip transfer
// per §4.6; the sidecar only packetizes and forwards them.
type SendBundleRequest struct {
	Transactions [][]byte `json:"transactions"`
}

// SendBundleResponse carries the bundle UUID the sidecar assigned.
type SendBundleResponse struct {
	BundleID string `json:"uuid"`
}

// BundleResult is one terminal or intermediate notification from the
// bundle-results stream.
type BundleResult struct {
	BundleID string `json:"bundle_id"`
	Status   string `json:"status"` // accepted, processed, finalized, rejected, dropped
	Slot     uint64 `json:"slot,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// subscribeRequest is the empty request message for the results stream.
type subscribeRequest struct{}

// getTipAccountsRequest is the empty request for fetching tip accounts.
type getTipAccountsRequest struct{}

type getTipAccountsResponse struct {
	Accounts []string `json:"accounts"`
}
