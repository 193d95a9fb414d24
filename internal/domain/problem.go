package domain

import (
	"errors"
	"slices"
	"strings"
	"time"
)

var (
	ErrContactMissing       = errors.New("exactly one of email or phone must be given and match the preferred contact method")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrPriorityNotPermitted = errors.New("priority cannot be raised for this category")
	ErrReporterNameRevealed = errors.New("reporter name cannot be made public when the reporter did not allow it")
	ErrModeratedDescription = errors.New("a published public problem needs a moderated description")
	ErrUnknownStatus        = errors.New("unknown status")

	ErrUnknownPublicationStatus = errors.New("unknown publication status")
	ErrUnknownCommissioned      = errors.New("unknown commissioning body")
	ErrServiceOrganisation      = errors.New("service does not belong to the organisation")
)

type Problem struct {
	ID                           int64             `db:"id"`
	OrganisationID               int64             `db:"organisation_id"`
	ServiceID                    *int64            `db:"service_id"`
	Created                      time.Time         `db:"created"`
	Status                       Status            `db:"status"`
	Priority                     Priority          `db:"priority"`
	Category                     Category          `db:"category"`
	PublicationStatus            PublicationStatus `db:"publication_status"`
	Public                       bool              `db:"public"`
	PublicReporterName           bool              `db:"public_reporter_name"`
	PublicReporterNameOriginal   bool              `db:"public_reporter_name_original"`
	Breach                       bool              `db:"breach"`
	FormalComplaint              bool              `db:"formal_complaint"`
	RequiresSecondTierModeration bool              `db:"requires_second_tier_moderation"`
	Commissioned                 *Commissioned     `db:"commissioned"`
	HappyService                 *bool             `db:"happy_service"`
	HappyOutcome                 *bool             `db:"happy_outcome"`
	TimeToAcknowledge            *int              `db:"time_to_acknowledge"`
	TimeToAddress                *int              `db:"time_to_address"`
	Resolved                     *time.Time        `db:"resolved"`
	Description                  string            `db:"description"`
	ModeratedDescription         string            `db:"moderated_description"`
	ReporterName                 string            `db:"reporter_name"`
	ReporterEmail                string            `db:"reporter_email"`
	ReporterPhone                string            `db:"reporter_phone"`
	PreferredContactMethod       ContactMethod     `db:"preferred_contact_method"`
	Version                      int               `db:"version"`
}

// PrepareForCreate normalises a freshly submitted problem and checks the
// creation invariants. The reporter's original name preference is frozen here.
func (p *Problem) PrepareForCreate(now time.Time) error {
	if !p.Category.Valid() {
		return ErrUnknownCategory
	}

	if p.Priority == PriorityHigh && !slices.Contains(PriorityCategories, p.Category) {
		return ErrPriorityNotPermitted
	}

	hasEmail := strings.TrimSpace(p.ReporterEmail) != ""
	hasPhone := strings.TrimSpace(p.ReporterPhone) != ""

	switch {
	case hasEmail == hasPhone:
		return ErrContactMissing
	case p.PreferredContactMethod == ContactEmail && !hasEmail:
		return ErrContactMissing
	case p.PreferredContactMethod == ContactPhone && !hasPhone:
		return ErrContactMissing
	case p.PreferredContactMethod != ContactEmail && p.PreferredContactMethod != ContactPhone:
		return ErrContactMissing
	}

	if !p.Public {
		p.PublicReporterName = false
	}

	p.PublicReporterNameOriginal = p.PublicReporterName
	p.Created = now
	p.Status = StatusNew
	p.PublicationStatus = NotModerated
	p.Version = 1

	return nil
}

// CheckService rejects a service run by a different organisation.
func (p *Problem) CheckService(svc *Service) error {
	if svc.OrganisationID != p.OrganisationID {
		return ErrServiceOrganisation
	}

	return nil
}

// CheckModeration validates the fields a moderator sets.
func (p *Problem) CheckModeration() error {
	if p.PublicReporterName && !p.PublicReporterNameOriginal {
		return ErrReporterNameRevealed
	}

	if p.PublicationStatus == Published && p.Public && strings.TrimSpace(p.ModeratedDescription) == "" {
		return ErrModeratedDescription
	}

	if !p.Category.Valid() {
		return ErrUnknownCategory
	}

	if !p.PublicationStatus.Valid() {
		return ErrUnknownPublicationStatus
	}

	if p.Commissioned != nil && !p.Commissioned.Valid() {
		return ErrUnknownCommissioned
	}

	return nil
}

// SetStatus moves the problem to status and fills in the timing fields the
// first time the problem leaves New and the first time it is closed.
func (p *Problem) SetStatus(status Status, now time.Time) error {
	if !status.Valid() {
		return ErrUnknownStatus
	}

	if status == p.Status {
		return nil
	}

	minutes := int(now.Sub(p.Created) / time.Minute)

	if p.TimeToAcknowledge == nil && status != StatusNew {
		p.TimeToAcknowledge = &minutes
	}

	if p.TimeToAddress == nil && !status.Open() && status != StatusAbusive {
		p.TimeToAddress = &minutes
		resolved := now
		p.Resolved = &resolved
	}

	p.Status = status

	return nil
}
