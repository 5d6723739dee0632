package marketsync

// RemotePlan is one billing plan as reported by the marketplace catalog.
// ID is the remote natural key; 0 is reserved for the local discount plan and
// never appears in catalog responses.
type RemotePlan struct {
	ID          int64  `json:"id" validate:"gte=0"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// RemoteAccount is one subscriber of a plan as reported by the marketplace
// catalog.
type RemoteAccount struct {
	ID    int64  `json:"id" validate:"gt=0"`
	Login string `json:"login" validate:"required"`
}
