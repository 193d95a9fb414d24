package http

import (
	"time"

	"github.com/YusovID/citizen-connect/internal/domain"
)

type createProblemRequest struct {
	OrganisationID         int64  `json:"organisation_id" validate:"required,gt=0"`
	ServiceID              *int64 `json:"service_id" validate:"omitempty,gt=0"`
	Category               string `json:"category" validate:"required,category"`
	HighPriority           bool   `json:"high_priority"`
	Public                 bool   `json:"public"`
	PublicReporterName     bool   `json:"public_reporter_name"`
	Description            string `json:"description" validate:"required,min=10,max=5000"`
	ReporterName           string `json:"reporter_name" validate:"required,min=2,max=100"`
	ReporterEmail          string `json:"reporter_email" validate:"omitempty,email,max=255"`
	ReporterPhone          string `json:"reporter_phone" validate:"omitempty,e164"`
	PreferredContactMethod string `json:"preferred_contact_method" validate:"required,contact_method"`
}

func (r createProblemRequest) problem() *domain.Problem {
	p := &domain.Problem{
		OrganisationID:         r.OrganisationID,
		ServiceID:              r.ServiceID,
		Category:               domain.Category(r.Category),
		Public:                 r.Public,
		PublicReporterName:     r.PublicReporterName,
		Description:            r.Description,
		ReporterName:           r.ReporterName,
		ReporterEmail:          r.ReporterEmail,
		ReporterPhone:          r.ReporterPhone,
		PreferredContactMethod: domain.ContactMethod(r.PreferredContactMethod),
	}

	if r.HighPriority {
		p.Priority = domain.PriorityHigh
	}

	return p
}

type moderateRequest struct {
	PublicationStatus            string `json:"publication_status" validate:"required,publication_status"`
	Category                     string `json:"category" validate:"required,category"`
	PublicReporterName           bool   `json:"public_reporter_name"`
	ModeratedDescription         string `json:"moderated_description" validate:"max=5000"`
	Breach                       bool   `json:"breach"`
	RequiresSecondTierModeration bool   `json:"requires_second_tier_moderation"`
	Commissioned                 string `json:"commissioned" validate:"omitempty,oneof=local national"`
}

type respondRequest struct {
	Response        string `json:"response" validate:"max=5000"`
	Status          string `json:"status" validate:"omitempty,status"`
	FormalComplaint *bool  `json:"formal_complaint"`
}

var commissionedNames = map[domain.Commissioned]string{
	domain.LocallyCommissioned:    "local",
	domain.NationallyCommissioned: "national",
}

func parseCommissioned(v string) *domain.Commissioned {
	for c, name := range commissionedNames {
		if name == v {
			return &c
		}
	}

	return nil
}

// problemView is what moderators and providers see of a problem.
// Reporter contact details are never sent back.
type problemView struct {
	ID                           int64     `json:"id"`
	OrganisationID               int64     `json:"organisation_id"`
	ServiceID                    *int64    `json:"service_id,omitempty"`
	Created                      time.Time `json:"created"`
	Status                       string    `json:"status"`
	Priority                     string    `json:"priority"`
	Category                     string    `json:"category"`
	PublicationStatus            string    `json:"publication_status"`
	Public                       bool      `json:"public"`
	PublicReporterName           bool      `json:"public_reporter_name"`
	Breach                       bool      `json:"breach"`
	FormalComplaint              bool      `json:"formal_complaint"`
	RequiresSecondTierModeration bool      `json:"requires_second_tier_moderation"`
	Commissioned                 string    `json:"commissioned,omitempty"`
	Description                  string    `json:"description"`
	ModeratedDescription         string    `json:"moderated_description"`
	Version                      int       `json:"version"`
}

func newProblemView(p *domain.Problem) problemView {
	v := problemView{
		ID:                           p.ID,
		OrganisationID:               p.OrganisationID,
		ServiceID:                    p.ServiceID,
		Created:                      p.Created,
		Status:                       p.Status.String(),
		Priority:                     "normal",
		Category:                     string(p.Category),
		PublicationStatus:            p.PublicationStatus.String(),
		Public:                       p.Public,
		PublicReporterName:           p.PublicReporterName,
		Breach:                       p.Breach,
		FormalComplaint:              p.FormalComplaint,
		RequiresSecondTierModeration: p.RequiresSecondTierModeration,
		Description:                  p.Description,
		ModeratedDescription:         p.ModeratedDescription,
		Version:                      p.Version,
	}

	if p.Priority == domain.PriorityHigh {
		v.Priority = "high"
	}

	if p.Commissioned != nil {
		v.Commissioned = commissionedNames[*p.Commissioned]
	}

	return v
}
