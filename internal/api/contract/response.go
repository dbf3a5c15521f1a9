package contract

type Response struct {
	Successful bool   `json:"successful"`
	Code       string `json:"code"`
	Category   string `json:"category,omitempty"`
	Message    string `json:"message,omitempty"`
	TrackID    string `json:"x_track_id"`
	Result     any    `json:"result"`
}
