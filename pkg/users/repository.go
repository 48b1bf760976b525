package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/messagebroker/users-api/pkg/observability/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the slice of the MongoDB adapter the repository needs.
type Store interface {
	FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error
	Find(ctx context.Context, collection string, filter interface{}, results interface{}, opts ...*options.FindOptions) error
	Aggregate(ctx context.Context, collection string, pipeline interface{}, results interface{}) error
	UpdateOne(ctx context.Context, collection string, filter, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, collection string, filter interface{}) (*mongo.DeleteResult, error)
}

// Repository implements user reads and writes over the document store.
type Repository struct {
	store      Store
	collection string
	logger     logger.Logger
	now        func() time.Time
}

// NewRepository creates a Repository bound to one collection.
func NewRepository(store Store, collection string, log logger.Logger) *Repository {
	return &Repository{
		store:      store,
		collection: collection,
		logger:     log,
		now:        time.Now,
	}
}

// GetByEmail finds the user document for an email. Emails are
// case-insensitive identity keys; the lookup lower-cases its input.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.store.FindOne(ctx, r.collection, bson.M{"email": normalizeEmail(email)}, &user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// GetByDrupalUID finds the user document for a drupal uid.
func (r *Repository) GetByDrupalUID(ctx context.Context, uid int64) (*User, error) {
	var user User
	err := r.store.FindOne(ctx, r.collection, bson.M{"drupal_uid": uid}, &user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by drupal_uid: %w", err)
	}
	return &user, nil
}

// Upsert creates or updates the document for patch.Email. Scalar fields are
// $set field-by-field; campaigns and subscription flags merge against the
// stored document so that fields absent from the patch are never lost. The
// created timestamp is written only on insert.
func (r *Repository) Upsert(ctx context.Context, patch Patch) error {
	if patch.Email == "" {
		return NewClientError("email is required")
	}
	email := normalizeEmail(patch.Email)

	existing, err := r.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	set := patchSetFields(patch)
	if patch.Campaigns != nil {
		var current []Campaign
		if existing != nil {
			current = existing.Campaigns
		}
		set["campaigns"] = MergeCampaigns(current, patch.Campaigns)
	}
	if patch.Subscriptions != nil {
		var current *Subscriptions
		if existing != nil {
			current = existing.Subscriptions
		}
		merged := MergeSubscriptions(current, patch.Subscriptions)
		if merged.Mailchimp != nil {
			set["subscriptions.mailchimp"] = *merged.Mailchimp
		}
		if merged.Digest != nil {
			set["subscriptions.digest"] = *merged.Digest
		}
		if merged.UserEvents != nil {
			set["subscriptions.user_events"] = *merged.UserEvents
		}
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created": r.now()},
	}
	result, err := r.store.UpdateOne(ctx, r.collection, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", email, err)
	}
	r.logger.Info("user upsert executed",
		"email", email,
		"matched", result.MatchedCount,
		"upserted", result.UpsertedCount)
	return nil
}

// SetBanned stamps the ban sub-record on the document for email, creating
// the document if none exists.
func (r *Repository) SetBanned(ctx context.Context, email, reason, source string) error {
	if email == "" {
		return NewClientError("email is required")
	}
	email = normalizeEmail(email)

	update := bson.M{
		"$set": bson.M{
			"subscriptions.banned": BanRecord{
				Reason: reason,
				When:   r.now(),
				Source: source,
			},
		},
		"$setOnInsert": bson.M{"created": r.now()},
	}
	if _, err := r.store.UpdateOne(ctx, r.collection, bson.M{"email": email}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("ban user %s: %w", email, err)
	}
	r.logger.Info("user ban recorded", "email", email, "reason", reason, "source", source)
	return nil
}

// Delete hard-deletes the document for email. Returns false when nothing
// matched.
func (r *Repository) Delete(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, NewClientError("email is required")
	}
	result, err := r.store.DeleteOne(ctx, r.collection, bson.M{"email": normalizeEmail(email)})
	if err != nil {
		return false, fmt.Errorf("delete user %s: %w", email, err)
	}
	return result.DeletedCount > 0, nil
}

// List returns one offset-paginated window of the filtered collection, in
// natural store order.
func (r *Repository) List(ctx context.Context, filters ListFilters, page OffsetPage) ([]User, error) {
	opts := options.Find().
		SetSkip(int64(page.Skip)).
		SetLimit(int64(page.Limit))

	results := []User{}
	if err := r.store.Find(ctx, r.collection, filters.Filter(), &results, opts); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return results, nil
}

// ListByDate runs the date-component aggregation for field and spec.
func (r *Repository) ListByDate(ctx context.Context, field DateField, spec DateSpec, filters ListFilters) ([]DateMatchResult, error) {
	switch field {
	case FieldBirthdate, FieldDrupalRegisterDate:
	default:
		return nil, NewClientError("unsupported date field %q", field)
	}

	results := []DateMatchResult{}
	if err := r.store.Aggregate(ctx, r.collection, DatePipeline(field, spec, filters), &results); err != nil {
		return nil, fmt.Errorf("date lookup on %s: %w", field, err)
	}
	return results, nil
}

// ListCursor fetches one cursor page together with the filtered view's
// boundary ids. The page query and the two boundary lookups are independent
// reads issued concurrently and joined before responding; any one failing
// fails the whole request.
func (r *Repository) ListCursor(ctx context.Context, q CursorQuery) (*CursorResult, error) {
	start := time.Now()

	var (
		wg     sync.WaitGroup
		page   []User
		bounds CollectionBounds
		errs   = make(chan error, 3)
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		opts := options.Find().
			SetSort(q.Sort()).
			SetLimit(int64(q.PageSize))
		results := []User{}
		if err := r.store.Find(ctx, r.collection, q.Filter(), &results, opts); err != nil {
			errs <- fmt.Errorf("cursor page query: %w", err)
			return
		}
		page = results
	}()

	var minID, maxID *primitive.ObjectID
	if !q.HasKnownBounds {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id, err := r.boundaryID(ctx, q.Filters, 1)
			if err != nil {
				errs <- fmt.Errorf("collection min lookup: %w", err)
				return
			}
			minID = id
		}()
		go func() {
			defer wg.Done()
			id, err := r.boundaryID(ctx, q.Filters, -1)
			if err != nil {
				errs <- fmt.Errorf("collection max lookup: %w", err)
				return
			}
			maxID = id
		}()
	}

	wg.Wait()
	select {
	case err := <-errs:
		return nil, err
	default:
	}

	switch {
	case q.HasKnownBounds:
		bounds = q.KnownBounds
	case minID == nil || maxID == nil:
		bounds = CollectionBounds{Empty: true}
	default:
		bounds = CollectionBounds{MinID: *minID, MaxID: *maxID}
	}
	return &CursorResult{Users: page, Bounds: bounds, Elapsed: time.Since(start)}, nil
}

// boundaryID returns the filtered view's smallest (order=1) or largest
// (order=-1) _id, or nil when the view is empty.
func (r *Repository) boundaryID(ctx context.Context, filters ListFilters, order int) (*primitive.ObjectID, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: order}}).
		SetLimit(1).
		SetProjection(bson.M{"_id": 1})

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := r.store.Find(ctx, r.collection, filters.Filter(), &docs, opts); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0].ID, nil
}

// patchSetFields builds the $set document from the patch's scalar fields.
// Campaigns and subscriptions are excluded; they carry merge logic.
func patchSetFields(patch Patch) bson.M {
	set := bson.M{"email": normalizeEmail(patch.Email)}
	setIf := func(key string, present bool, value interface{}) {
		if present {
			set[key] = value
		}
	}
	setIf("source", patch.Source != nil, deref(patch.Source))
	setIf("birthdate", patch.Birthdate != nil, patch.Birthdate)
	setIf("drupal_register_date", patch.DrupalRegisterDate != nil, patch.DrupalRegisterDate)
	setIf("drupal_uid", patch.DrupalUID != nil, deref(patch.DrupalUID))
	setIf("first_name", patch.FirstName != nil, deref(patch.FirstName))
	setIf("last_name", patch.LastName != nil, deref(patch.LastName))
	setIf("language", patch.Language != nil, deref(patch.Language))
	setIf("address1", patch.Address1 != nil, deref(patch.Address1))
	setIf("address2", patch.Address2 != nil, deref(patch.Address2))
	setIf("city", patch.City != nil, deref(patch.City))
	setIf("state", patch.State != nil, deref(patch.State))
	setIf("country_code", patch.CountryCode != nil, deref(patch.CountryCode))
	setIf("zip", patch.Zip != nil, deref(patch.Zip))
	setIf("mobile", patch.Mobile != nil, deref(patch.Mobile))
	setIf("mailchimp_status", patch.MailchimpStatus != nil, deref(patch.MailchimpStatus))
	setIf("subscribed", patch.Subscribed != nil, deref(patch.Subscribed))
	setIf("hs_gradyear", patch.HSGradYear != nil, deref(patch.HSGradYear))
	setIf("race", patch.Race != nil, deref(patch.Race))
	setIf("religion", patch.Religion != nil, deref(patch.Religion))
	setIf("hs_name", patch.HSName != nil, deref(patch.HSName))
	setIf("college_name", patch.CollegeName != nil, deref(patch.CollegeName))
	setIf("major_name", patch.MajorName != nil, deref(patch.MajorName))
	setIf("degree_type", patch.DegreeType != nil, deref(patch.DegreeType))
	setIf("sat_math", patch.SATMath != nil, deref(patch.SATMath))
	setIf("sat_verbal", patch.SATVerbal != nil, deref(patch.SATVerbal))
	setIf("sat_writing", patch.SATWriting != nil, deref(patch.SATWriting))
	setIf("act_math", patch.ACTMath != nil, deref(patch.ACTMath))
	setIf("gpa", patch.GPA != nil, deref(patch.GPA))
	setIf("role", patch.Role != nil, deref(patch.Role))
	return set
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
