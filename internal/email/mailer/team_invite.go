// internal/email/mailer/team_invite.go
package mailer

import (
	"fmt"

	"github.com/osfield/osfield/internal/email"
)

// TeamInviteData feeds the team_invite template pair.
type TeamInviteData struct {
	Name             string
	OrganizationName string
	LoginURL         string
}

// SendTeamInvite notifies a newly added team member.
func SendTeamInvite(s *email.Service, to, name, orgName, baseURL string) error {
	data := TeamInviteData{
		Name:             name,
		OrganizationName: orgName,
		LoginURL:         fmt.Sprintf("%s/login", baseURL),
	}

	return s.Send(email.EmailData{
		To:           to,
		FromName:     "osfield",
		Subject:      fmt.Sprintf("Você foi adicionado à equipe %s", orgName),
		TemplateName: "team_invite",
		TemplateData: data,
	})
}
