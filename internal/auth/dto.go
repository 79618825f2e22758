package auth

import (
	"strings"

	"github.com/frahmantamala/filehub/internal"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate checks required fields.
func (d LoginDTO) Validate() error {
	if strings.TrimSpace(d.Username) == "" || d.Password == "" {
		return internal.ErrMissingCredentials
	}
	return nil
}

// LoginPageResponse is the model of the login screen.
type LoginPageResponse struct {
	Error         string `json:"error,omitempty"`
	Authenticated bool   `json:"authenticated"`
}
