package services

import (
	"strings"
	"time"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
)

// Principal identifies the signed-in user on whose behalf an operation runs.
type Principal struct {
	UserID uint
	Name   string
}

func PrincipalFor(u *models.User) Principal {
	return Principal{UserID: u.ID, Name: u.Name}
}

// DateTimeLayout is the wire format of datetime-local form inputs.
const DateTimeLayout = "2006-01-02T15:04"

// ParseDateTime reads a datetime-local value as server local time and returns it in UTC.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, appErr.Wrap(err, appErr.CodeInvalid, "Invalid date format. Use YYYY-MM-DDTHH:MM.")
	}
	return t.UTC(), nil
}
