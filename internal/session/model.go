package session

// User is the authenticated Taiga identity returned by the auth endpoint.
// The auth token stays valid until the remote service rejects it; there is
// no local expiry or refresh.
type User struct {
	ID          int    `json:"id"`
	Name        string `json:"full_name"`
	DisplayName string `json:"full_name_display"`
	AuthToken   string `json:"auth_token"`
	Timezone    string `json:"timezone"`
	Active      bool   `json:"is_active"`
	Email       string `json:"email"`
	Lang        string `json:"lang"`
	PhotoURL    string `json:"photo"`
}
