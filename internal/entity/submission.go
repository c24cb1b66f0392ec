package entity

// SubmitPayload is the body IndexNow expects for a bulk submission.
type SubmitPayload struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation,omitempty"`
	URLList     []string `json:"urlList"`
}

// SubmitResult is the outcome of submitting a list of URLs.
type SubmitResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	SubmittedCount int    `json:"submittedCount"`
}
