package users

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// Patch is a typed partial update for a user document. Every field is
// optional; only non-nil fields are written. The struct's json tags are the
// write allow-list: keys outside it are reported by DecodePatch and dropped.
type Patch struct {
	Email              string              `json:"email"`
	Source             *string             `json:"source"`
	Birthdate          *time.Time          `json:"birthdate"`
	DrupalRegisterDate *time.Time          `json:"drupal_register_date"`
	DrupalUID          *int64              `json:"drupal_uid"`
	FirstName          *string             `json:"first_name"`
	LastName           *string             `json:"last_name"`
	Language           *string             `json:"language"`
	Address1           *string             `json:"address1"`
	Address2           *string             `json:"address2"`
	City               *string             `json:"city"`
	State              *string             `json:"state"`
	CountryCode        *string             `json:"country_code"`
	Zip                *string             `json:"zip"`
	Mobile             *string             `json:"mobile"`
	MailchimpStatus    *int                `json:"mailchimp_status"`
	Subscribed         *int                `json:"subscribed"`
	Subscriptions      *SubscriptionsPatch `json:"subscriptions"`
	Campaigns          []CampaignPatch     `json:"campaigns"`
	HSGradYear         *int                `json:"hs_gradyear"`
	Race               *string             `json:"race"`
	Religion           *string             `json:"religion"`
	HSName             *string             `json:"hs_name"`
	CollegeName        *string             `json:"college_name"`
	MajorName          *string             `json:"major_name"`
	DegreeType         *string             `json:"degree_type"`
	SATMath            *int                `json:"sat_math"`
	SATVerbal          *int                `json:"sat_verbal"`
	SATWriting         *int                `json:"sat_writing"`
	ACTMath            *int                `json:"act_math"`
	GPA                *float64            `json:"gpa"`
	Role               *string             `json:"role"`
}

// CampaignPatch updates a single campaign entry, matched by ID. Only non-nil
// fields overwrite the stored entry.
type CampaignPatch struct {
	ID             int        `json:"id"`
	Language       *string    `json:"language"`
	SignupDate     *time.Time `json:"signup_date"`
	ReportbackDate *time.Time `json:"reportback_date"`
}

// SubscriptionsPatch updates subscription flags. Only non-nil flags overwrite.
type SubscriptionsPatch struct {
	Mailchimp  *bool `json:"mailchimp"`
	Digest     *bool `json:"digest"`
	UserEvents *bool `json:"user_events"`
}

// allowedPatchFields is derived once from the Patch json tags.
var allowedPatchFields = patchFieldSet()

func patchFieldSet() map[string]struct{} {
	t := reflect.TypeOf(Patch{})
	fields := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			fields[name] = struct{}{}
		}
	}
	return fields
}

// DecodePatch parses a request body into a Patch. Keys outside the
// allow-list are returned in unknown, for the caller to log, and dropped.
func DecodePatch(body []byte) (Patch, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Patch{}, nil, NewClientError("invalid request body: %v", err)
	}

	var unknown []string
	for key := range raw {
		if _, ok := allowedPatchFields[key]; !ok {
			unknown = append(unknown, key)
			delete(raw, key)
		}
	}

	filtered, err := json.Marshal(raw)
	if err != nil {
		return Patch{}, unknown, err
	}

	var p Patch
	dec := json.NewDecoder(bytes.NewReader(filtered))
	if err := dec.Decode(&p); err != nil {
		return Patch{}, unknown, NewClientError("invalid request body: %v", err)
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return p, unknown, nil
}
