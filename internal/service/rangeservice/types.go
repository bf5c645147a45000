package rangeservice

// PushAck represents the server response for a single pushed item
type PushAck struct {
	UID       string `json:"uid"`
	Version   int    `json:"version"`
	UpdatedAt string `json:"updatedAt"`
	Error     string `json:"error,omitempty"`
}

// PullResponse represents the items of one requested range
type PullResponse struct {
	Upserts []map[string]any `json:"upserts"`
	Deletes []map[string]any `json:"deletes"`
	HasMore bool             `json:"hasMore"` // limit reached; request a narrower range
}

// RangesResponse is the next chunk list for a client
type RangesResponse struct {
	Ranges  []string `json:"ranges"`
	Outcome string   `json:"outcome"`
	Token   string   `json:"token,omitempty"`
}
