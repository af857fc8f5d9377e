package project

// Project mirrors a Taiga project as served by the v1 API. The ID is
// assigned by the server and is the identity key in the local store.
type Project struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	LogoSmallURL string   `json:"logo_small_url,omitempty"`
	LogoBigURL   string   `json:"logo_big_url,omitempty"`
	IsPrivate    bool     `json:"is_private"`
}
