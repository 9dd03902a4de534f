package models

// AppSettings is the global application branding. It is a singleton shared
// by every user and synchronizes through its own fixed remote identifier.
type AppSettings struct {
	AppName string `json:"appName"`
	LogoURL string `json:"logoUrl,omitempty"`
}
