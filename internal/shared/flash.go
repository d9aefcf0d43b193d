package shared

// FlashMessage represents a one-time notification shown on the next page.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
