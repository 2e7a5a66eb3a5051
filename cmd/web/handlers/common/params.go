package common

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
)

// ProfileIDHeader scopes requests to one creator profile. Empty is allowed;
// single-tenant deployments never set it.
const ProfileIDHeader = "X-Profile-ID"

// RequireUUIDParam parses the named route parameter as a UUID. A value
// that does not parse becomes a 400 for the caller to return as-is.
func RequireUUIDParam(c echo.Context, param string) (pgtype.UUID, error) {
	var u pgtype.UUID
	if err := u.Scan(c.Param(param)); err != nil {
		return u, ErrBadRequest("invalid " + param)
	}
	return u, nil
}

// ProfileID resolves the profile scope for a request: the X-Profile-ID
// header, falling back to the profile_id form field.
func ProfileID(c echo.Context) string {
	if id := strings.TrimSpace(c.Request().Header.Get(ProfileIDHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.FormValue("profile_id"))
}
