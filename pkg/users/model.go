// Package users implements the subscriber record domain: the document
// model, query filters, date-component matching, and the offset and cursor
// pagination strategies.
package users

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is one subscriber document. The ObjectID doubles as the cursor
// pagination key; it is monotonic with insertion time.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Created            *time.Time         `bson:"created,omitempty" json:"created,omitempty"`
	Email              string             `bson:"email,omitempty" json:"email,omitempty"`
	Source             string             `bson:"source,omitempty" json:"source,omitempty"`
	Birthdate          *time.Time         `bson:"birthdate,omitempty" json:"birthdate,omitempty"`
	DrupalRegisterDate *time.Time         `bson:"drupal_register_date,omitempty" json:"drupal_register_date,omitempty"`
	DrupalUID          *int64             `bson:"drupal_uid,omitempty" json:"drupal_uid,omitempty"`
	FirstName          string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName           string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Language           string             `bson:"language,omitempty" json:"language,omitempty"`
	Address1           string             `bson:"address1,omitempty" json:"address1,omitempty"`
	Address2           string             `bson:"address2,omitempty" json:"address2,omitempty"`
	City               string             `bson:"city,omitempty" json:"city,omitempty"`
	State              string             `bson:"state,omitempty" json:"state,omitempty"`
	CountryCode        string             `bson:"country_code,omitempty" json:"country_code,omitempty"`
	Zip                string             `bson:"zip,omitempty" json:"zip,omitempty"`
	Mobile             string             `bson:"mobile,omitempty" json:"mobile,omitempty"`
	MailchimpStatus    *int               `bson:"mailchimp_status,omitempty" json:"mailchimp_status,omitempty"`
	Subscribed         *int               `bson:"subscribed,omitempty" json:"subscribed,omitempty"`
	Subscriptions      *Subscriptions     `bson:"subscriptions,omitempty" json:"subscriptions,omitempty"`
	Campaigns          []Campaign         `bson:"campaigns,omitempty" json:"campaigns,omitempty"`
	HSGradYear         *int               `bson:"hs_gradyear,omitempty" json:"hs_gradyear,omitempty"`
	Race               string             `bson:"race,omitempty" json:"race,omitempty"`
	Religion           string             `bson:"religion,omitempty" json:"religion,omitempty"`
	HSName             string             `bson:"hs_name,omitempty" json:"hs_name,omitempty"`
	CollegeName        string             `bson:"college_name,omitempty" json:"college_name,omitempty"`
	MajorName          string             `bson:"major_name,omitempty" json:"major_name,omitempty"`
	DegreeType         string             `bson:"degree_type,omitempty" json:"degree_type,omitempty"`
	SATMath            *int               `bson:"sat_math,omitempty" json:"sat_math,omitempty"`
	SATVerbal          *int               `bson:"sat_verbal,omitempty" json:"sat_verbal,omitempty"`
	SATWriting         *int               `bson:"sat_writing,omitempty" json:"sat_writing,omitempty"`
	ACTMath            *int               `bson:"act_math,omitempty" json:"act_math,omitempty"`
	GPA                *float64           `bson:"gpa,omitempty" json:"gpa,omitempty"`
	Role               string             `bson:"role,omitempty" json:"role,omitempty"`
}

// Campaign is one campaign action entry. Entries are unique by ID within a
// user document.
type Campaign struct {
	ID             int        `bson:"id" json:"id"`
	Language       string     `bson:"language,omitempty" json:"language,omitempty"`
	SignupDate     *time.Time `bson:"signup_date,omitempty" json:"signup_date,omitempty"`
	ReportbackDate *time.Time `bson:"reportback_date,omitempty" json:"reportback_date,omitempty"`
}

// Subscriptions holds opt-in flags and the ban sub-record. A missing flag is
// treated as opted-in, and a missing banned record as not banned.
type Subscriptions struct {
	Mailchimp  *bool      `bson:"mailchimp,omitempty" json:"mailchimp,omitempty"`
	Digest     *bool      `bson:"digest,omitempty" json:"digest,omitempty"`
	UserEvents *bool      `bson:"user_events,omitempty" json:"user_events,omitempty"`
	Banned     *BanRecord `bson:"banned,omitempty" json:"banned,omitempty"`
}

// BanRecord records why, when, and through which channel a user was banned.
type BanRecord struct {
	Reason string    `bson:"reason,omitempty" json:"reason,omitempty"`
	When   time.Time `bson:"when" json:"when"`
	Source string    `bson:"source,omitempty" json:"source,omitempty"`
}

// DateMatchResult is one row of a date-component lookup: the passthrough
// identity fields plus the extracted month, day, and year.
type DateMatchResult struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	FirstName string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName  string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Source    string             `bson:"source,omitempty" json:"source,omitempty"`
	Month     int                `bson:"month" json:"month"`
	Day       int                `bson:"day" json:"day"`
	Year      int                `bson:"year" json:"year"`
}
