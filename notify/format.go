package notify

import (
	"fmt"
	"html"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/inho1628/korea-community-website/model"
)

// FormatApplication renders a gallery application for moderators.
func FormatApplication(app model.GalleryApplication, applicant model.User, now time.Time) string {
	submitted := "unknown"
	if app.CreatedAt.Valid {
		submitted = humanize.RelTime(app.CreatedAt.Time, now, "ago", "from now")
	}

	name := applicant.Name
	if name == "" {
		name = app.UserID
	}

	return fmt.Sprintf(
		"🏳️ <b>New gallery application</b>\n\n"+
			"Country: <b>%s</b>\n"+
			"Applicant: %s (%s)\n"+
			"Submitted: %s\n\n"+
			"<i>%s</i>",
		html.EscapeString(app.Country),
		html.EscapeString(name), html.EscapeString(applicant.Country),
		submitted,
		html.EscapeString(app.Description),
	)
}
