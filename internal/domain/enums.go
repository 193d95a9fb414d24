package domain

import (
	"fmt"
	"slices"
)

type Status int

const (
	StatusNew Status = iota
	StatusAcknowledged
	StatusResolved
	StatusUnableToResolve
	StatusReferredToOtherProvider
	StatusUnableToContact
	StatusAbusive
)

var statusNames = map[Status]string{
	StatusNew:                     "new",
	StatusAcknowledged:            "acknowledged",
	StatusResolved:                "resolved",
	StatusUnableToResolve:         "unable_to_resolve",
	StatusReferredToOtherProvider: "referred_to_other_provider",
	StatusUnableToContact:         "unable_to_contact",
	StatusAbusive:                 "abusive",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func ParseStatus(v string) (Status, error) {
	for s, name := range statusNames {
		if name == v {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown status '%s'", v)
}

var (
	OpenStatuses   = []Status{StatusNew, StatusAcknowledged}
	ClosedStatuses = []Status{StatusResolved, StatusUnableToResolve, StatusReferredToOtherProvider, StatusUnableToContact}
	HiddenStatuses = []Status{StatusAbusive}

	// VisibleStatuses are the statuses shown on public pages.
	VisibleStatuses = append(slices.Clone(OpenStatuses), ClosedStatuses...)
	AllStatuses     = append(slices.Clone(VisibleStatuses), HiddenStatuses...)
)

func (s Status) Open() bool { return slices.Contains(OpenStatuses, s) }

type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

type Category string

const (
	CategoryStaff         Category = "staff"
	CategoryAccess        Category = "access"
	CategoryDelays        Category = "delays"
	CategoryTreatment     Category = "treatment"
	CategoryCommunication Category = "communication"
	CategoryCleanliness   Category = "cleanliness"
	CategoryEquipment     Category = "equipment"
	CategoryMedicines     Category = "medicines"
	CategoryDignity       Category = "dignity"
	CategoryParking       Category = "parking"
	CategoryLostProperty  Category = "lostproperty"
	CategoryOther         Category = "other"
)

var Categories = []Category{
	CategoryStaff, CategoryAccess, CategoryDelays, CategoryTreatment,
	CategoryCommunication, CategoryCleanliness, CategoryEquipment,
	CategoryMedicines, CategoryDignity, CategoryParking,
	CategoryLostProperty, CategoryOther,
}

// PriorityCategories may be raised to high priority at submission.
var PriorityCategories = []Category{CategoryAccess, CategoryDelays, CategoryMedicines}

func (c Category) Valid() bool { return slices.Contains(Categories, c) }

type PublicationStatus int

const (
	NotModerated PublicationStatus = iota
	Rejected
	Published
)

var publicationStatusNames = map[PublicationStatus]string{
	NotModerated: "not_moderated",
	Rejected:     "rejected",
	Published:    "published",
}

func (s PublicationStatus) String() string {
	if name, ok := publicationStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("publication_status(%d)", int(s))
}

func (s PublicationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s PublicationStatus) Valid() bool {
	_, ok := publicationStatusNames[s]
	return ok
}

func ParsePublicationStatus(v string) (PublicationStatus, error) {
	for s, name := range publicationStatusNames {
		if name == v {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown publication status '%s'", v)
}

type Commissioned int

const (
	LocallyCommissioned Commissioned = iota
	NationallyCommissioned
)

func (c Commissioned) Valid() bool {
	return c == LocallyCommissioned || c == NationallyCommissioned
}

type ContactMethod string

const (
	ContactEmail ContactMethod = "email"
	ContactPhone ContactMethod = "phone"
)
