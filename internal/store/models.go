package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups monitored websites. Websites reference it weakly by id;
// nothing enforces that the reference resolves.
type Category struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Color *string            `bson:"color,omitempty" json:"color"`
}

// Website is a monitored target. IntervalSeconds and IsActive are advisory:
// no scheduler consumes them and checks run regardless of IsActive.
type Website struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	URL             string             `bson:"url" json:"url"`
	CategoryID      *string            `bson:"category_id,omitempty" json:"category_id"`
	Keywords        []string           `bson:"keywords" json:"keywords"`
	IntervalSeconds int                `bson:"interval_seconds" json:"interval_seconds"`
	IsActive        bool               `bson:"is_active" json:"is_active"`
}

// CheckResult records one probe outcome. StatusCode, ResponseTimeMS and Error
// are optional; Error is set only when the probe failed, in which case no
// status code was captured. Records are immutable once written.
type CheckResult struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WebsiteID      string             `bson:"website_id" json:"website_id"`
	StatusCode     *int               `bson:"status_code,omitempty" json:"status_code"`
	IsUp           bool               `bson:"is_up" json:"is_up"`
	ResponseTimeMS *int               `bson:"response_time_ms,omitempty" json:"response_time_ms"`
	KeywordMatches []string           `bson:"keyword_matches" json:"keyword_matches"`
	Error          *string            `bson:"error,omitempty" json:"error"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
