package worker

// BatchResult reports which messages in a batch failed. An empty Failures
// slice means the whole batch succeeded. The JSON shape matches the partial
// batch response format event-driven queue consumers report failures with.
type BatchResult struct {
	Failures []ItemFailure `json:"batchItemFailures"`
}

// ItemFailure identifies a single failed message by its queue message id.
type ItemFailure struct {
	ItemIdentifier string `json:"itemIdentifier"`
}

// Failed reports whether the message with the given id failed.
func (r BatchResult) Failed(messageID string) bool {
	for _, f := range r.Failures {
		if f.ItemIdentifier == messageID {
			return true
		}
	}
	return false
}
