package domain

import (
	"database/sql"
	"time"
)

type CCG struct {
	ID   int64  `db:"id"`
	Code string `db:"code"`
	Name string `db:"name"`
}

type OrganisationParent struct {
	ID   int64  `db:"id"`
	Code string `db:"code"`
	Name string `db:"name"`
}

type Organisation struct {
	ID                          int64           `db:"id"`
	ODSCode                     string          `db:"ods_code"`
	Name                        string          `db:"name"`
	OrganisationType            string          `db:"organisation_type"`
	ParentID                    int64           `db:"parent_id"`
	Lat                         sql.NullFloat64 `db:"lat"`
	Lon                         sql.NullFloat64 `db:"lon"`
	AverageRecommendationRating sql.NullFloat64 `db:"average_recommendation_rating"`
}

type Service struct {
	ID             int64  `db:"id"`
	OrganisationID int64  `db:"organisation_id"`
	ServiceCode    string `db:"service_code"`
	Name           string `db:"name"`
}

type Review struct {
	ID             int64         `db:"id"`
	OrganisationID int64         `db:"organisation_id"`
	Title          string        `db:"title"`
	Comment        string        `db:"comment"`
	PublishedDate  time.Time     `db:"published_date"`
	InReplyToID    sql.NullInt64 `db:"in_reply_to_id"`
}

// IsReply reports whether the review answers another review.
func (r Review) IsReply() bool {
	return r.InReplyToID.Valid
}

type ProblemResponse struct {
	ID        int64     `db:"id" json:"id"`
	IssueID   int64     `db:"issue_id" json:"issue_id"`
	Response  string    `db:"response" json:"response"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Bounds is a lat/lon rectangle used by the map view.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}
