package users

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/messagebroker/users-api/pkg/observability/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeStore struct {
	findOneFunc   func(collection string, filter, result interface{}) error
	findFunc      func(collection string, filter, results interface{}, opts ...*options.FindOptions) error
	aggregateFunc func(collection string, pipeline, results interface{}) error
	updateOneFunc func(collection string, filter, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	deleteOneFunc func(collection string, filter interface{}) (*mongo.DeleteResult, error)

	mu        sync.Mutex
	findCalls int
}

func (f *fakeStore) FindOne(_ context.Context, collection string, filter, result interface{}) error {
	if f.findOneFunc == nil {
		return mongo.ErrNoDocuments
	}
	return f.findOneFunc(collection, filter, result)
}

func (f *fakeStore) Find(_ context.Context, collection string, filter, results interface{}, opts ...*options.FindOptions) error {
	f.mu.Lock()
	f.findCalls++
	f.mu.Unlock()
	if f.findFunc == nil {
		return nil
	}
	return f.findFunc(collection, filter, results, opts...)
}

func (f *fakeStore) Aggregate(_ context.Context, collection string, pipeline, results interface{}) error {
	if f.aggregateFunc == nil {
		return nil
	}
	return f.aggregateFunc(collection, pipeline, results)
}

func (f *fakeStore) UpdateOne(_ context.Context, collection string, filter, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	if f.updateOneFunc == nil {
		return &mongo.UpdateResult{}, nil
	}
	return f.updateOneFunc(collection, filter, update, opts...)
}

func (f *fakeStore) DeleteOne(_ context.Context, collection string, filter interface{}) (*mongo.DeleteResult, error) {
	if f.deleteOneFunc == nil {
		return &mongo.DeleteResult{}, nil
	}
	return f.deleteOneFunc(collection, filter)
}

func newTestRepository(store *fakeStore) *Repository {
	r := NewRepository(store, "mailchimp-user", logger.NopLogger{})
	r.now = func() time.Time { return time.Date(2016, 4, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

// appendIDDoc appends one element holding id to the slice results points to,
// regardless of the concrete element type.
func appendIDDoc(results interface{}, id primitive.ObjectID) {
	slice := reflect.ValueOf(results).Elem()
	elem := reflect.New(slice.Type().Elem()).Elem()
	elem.Field(0).Set(reflect.ValueOf(id))
	slice.Set(reflect.Append(slice, elem))
}

func TestGetByEmailNormalizesAndMapsNotFound(t *testing.T) {
	var seenFilter bson.M
	store := &fakeStore{
		findOneFunc: func(_ string, filter, _ interface{}) error {
			seenFilter = filter.(bson.M)
			return mongo.ErrNoDocuments
		},
	}

	_, err := newTestRepository(store).GetByEmail(context.Background(), " Person@Example.ORG ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if seenFilter["email"] != "person@example.org" {
		t.Errorf("lookup filter = %#v, want lowercased trimmed email", seenFilter)
	}
}

func TestUpsertRequiresEmail(t *testing.T) {
	err := newTestRepository(&fakeStore{}).Upsert(context.Background(), Patch{})
	if !IsClientError(err) {
		t.Fatalf("expected client error, got %v", err)
	}
}

func TestUpsertMergesAgainstStoredDocument(t *testing.T) {
	signup := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)
	stored := User{
		Email:     "a@b.c",
		Campaigns: []Campaign{{ID: 7, Language: "en", SignupDate: &signup}},
		Subscriptions: &Subscriptions{
			Mailchimp: boolPtr(true),
		},
	}

	var seenUpdate bson.M
	var seenOpts []*options.UpdateOptions
	store := &fakeStore{
		findOneFunc: func(_ string, _, result interface{}) error {
			*result.(*User) = stored
			return nil
		},
		updateOneFunc: func(_ string, _, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
			seenUpdate = update.(bson.M)
			seenOpts = opts
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}

	reportback := time.Date(2015, 9, 1, 0, 0, 0, 0, time.UTC)
	patch := Patch{
		Email:     "A@B.C",
		FirstName: strPtr("Pat"),
		Campaigns: []CampaignPatch{{ID: 7, ReportbackDate: &reportback}},
		Subscriptions: &SubscriptionsPatch{
			Digest: boolPtr(false),
		},
	}

	repo := newTestRepository(store)
	if err := repo.Upsert(context.Background(), patch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set := seenUpdate["$set"].(bson.M)
	if set["email"] != "a@b.c" {
		t.Errorf("email = %v, want lowercased", set["email"])
	}
	if set["first_name"] != "Pat" {
		t.Errorf("first_name = %v", set["first_name"])
	}

	campaigns := set["campaigns"].([]Campaign)
	if len(campaigns) != 1 {
		t.Fatalf("campaigns = %#v, want merged single entry", campaigns)
	}
	if campaigns[0].Language != "en" || campaigns[0].ReportbackDate == nil {
		t.Errorf("campaign merge lost fields: %#v", campaigns[0])
	}

	if set["subscriptions.digest"] != false {
		t.Errorf("subscriptions.digest = %v, want false", set["subscriptions.digest"])
	}
	if set["subscriptions.mailchimp"] != true {
		t.Errorf("subscriptions.mailchimp = %v, stored flag must survive", set["subscriptions.mailchimp"])
	}
	if _, ok := set["subscriptions.banned"]; ok {
		t.Error("upsert must never write the ban record")
	}

	onInsert := seenUpdate["$setOnInsert"].(bson.M)
	if !onInsert["created"].(time.Time).Equal(repo.now()) {
		t.Errorf("created = %v, want repository clock", onInsert["created"])
	}

	if len(seenOpts) != 1 || seenOpts[0].Upsert == nil || !*seenOpts[0].Upsert {
		t.Error("update must run with upsert enabled")
	}
}

func TestSetBannedWritesBanRecord(t *testing.T) {
	var seenUpdate bson.M
	store := &fakeStore{
		updateOneFunc: func(_ string, _, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
			seenUpdate = update.(bson.M)
			return &mongo.UpdateResult{UpsertedCount: 1}, nil
		},
	}

	repo := newTestRepository(store)
	if err := repo.SetBanned(context.Background(), "a@b.c", "spam", "moderator"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set := seenUpdate["$set"].(bson.M)
	record, ok := set["subscriptions.banned"].(BanRecord)
	if !ok {
		t.Fatalf("ban record = %#v", set["subscriptions.banned"])
	}
	if record.Reason != "spam" || record.Source != "moderator" {
		t.Errorf("ban record = %#v", record)
	}
	if !record.When.Equal(repo.now()) {
		t.Errorf("ban timestamp = %v, want repository clock", record.When)
	}
}

func TestDeleteReportsMatch(t *testing.T) {
	store := &fakeStore{
		deleteOneFunc: func(_ string, _ interface{}) (*mongo.DeleteResult, error) {
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		},
	}
	deleted, err := newTestRepository(store).Delete(context.Background(), "a@b.c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected deleted=true for a matched document")
	}

	store.deleteOneFunc = func(_ string, _ interface{}) (*mongo.DeleteResult, error) {
		return &mongo.DeleteResult{DeletedCount: 0}, nil
	}
	deleted, err = newTestRepository(store).Delete(context.Background(), "a@b.c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false when nothing matched")
	}
}

func TestListAppliesSkipAndLimit(t *testing.T) {
	var seenOpts *options.FindOptions
	store := &fakeStore{
		findFunc: func(_ string, _, _ interface{}, opts ...*options.FindOptions) error {
			seenOpts = opts[0]
			return nil
		},
	}

	page := OffsetPage{Page: 3, PageSize: 10, Limit: 10, Skip: 20}
	if _, err := newTestRepository(store).List(context.Background(), ListFilters{}, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenOpts.Skip == nil || *seenOpts.Skip != 20 {
		t.Errorf("skip = %v, want 20", seenOpts.Skip)
	}
	if seenOpts.Limit == nil || *seenOpts.Limit != 10 {
		t.Errorf("limit = %v, want 10", seenOpts.Limit)
	}
}

func TestListByDateRejectsUnknownField(t *testing.T) {
	_, err := newTestRepository(&fakeStore{}).ListByDate(context.Background(), DateField("password"), DateSpec{Month: 1, Day: 1}, ListFilters{})
	if !IsClientError(err) {
		t.Fatalf("expected client error, got %v", err)
	}
}

func TestListCursorComputesBoundsConcurrently(t *testing.T) {
	lowID := objectID(t, hexLow)
	highID := objectID(t, hexHigh)
	pageUser := User{ID: objectID(t, hexMid)}

	store := &fakeStore{}
	store.findFunc = func(_ string, _, results interface{}, opts ...*options.FindOptions) error {
		switch page := results.(type) {
		case *[]User:
			*page = []User{pageUser}
			return nil
		default:
			// Boundary lookup: sorted by _id, limit 1.
			sort := opts[0].Sort.(bson.D)
			if sort[0].Value == 1 {
				appendIDDoc(results, lowID)
			} else {
				appendIDDoc(results, highID)
			}
			return nil
		}
	}

	q := CursorQuery{PageSize: 5, Direction: Ascending}
	result, err := newTestRepository(store).ListCursor(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.findCalls != 3 {
		t.Errorf("find calls = %d, want page plus two boundary lookups", store.findCalls)
	}
	if result.Bounds.MinID != lowID || result.Bounds.MaxID != highID {
		t.Errorf("bounds = %#v", result.Bounds)
	}
	if len(result.Users) != 1 || result.Users[0].ID != pageUser.ID {
		t.Errorf("page = %#v", result.Users)
	}
}

func TestListCursorSkipsBoundaryLookupsWhenKnown(t *testing.T) {
	store := &fakeStore{}
	known := CollectionBounds{MinID: objectID(t, hexLow), MaxID: objectID(t, hexHigh)}

	q := CursorQuery{PageSize: 5, Direction: Ascending, KnownBounds: known, HasKnownBounds: true}
	result, err := newTestRepository(store).ListCursor(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.findCalls != 1 {
		t.Errorf("find calls = %d, want only the page query", store.findCalls)
	}
	if result.Bounds != known {
		t.Errorf("bounds = %#v, want the supplied bounds", result.Bounds)
	}
}

func TestListCursorEmptyView(t *testing.T) {
	store := &fakeStore{} // every find returns nothing
	q := CursorQuery{PageSize: 5, Direction: Ascending}

	result, err := newTestRepository(store).ListCursor(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Bounds.Empty {
		t.Errorf("bounds = %#v, want empty view", result.Bounds)
	}
	if len(result.Users) != 0 {
		t.Errorf("page = %#v, want empty", result.Users)
	}
}

func TestListCursorPropagatesQueryErrors(t *testing.T) {
	store := &fakeStore{
		findFunc: func(_ string, _, results interface{}, _ ...*options.FindOptions) error {
			if _, ok := results.(*[]User); ok {
				return errors.New("socket closed")
			}
			return nil
		},
	}

	q := CursorQuery{PageSize: 5, Direction: Ascending}
	if _, err := newTestRepository(store).ListCursor(context.Background(), q); err == nil {
		t.Fatal("expected page query error to surface")
	}
}
