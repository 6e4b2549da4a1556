package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ncobase/scoutcore/recompute"
	"github.com/ncobase/scoutcore/schema"

	"github.com/hashicorp/go-multierror"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	CollectionOrgForms = "orgforms"
)

// ErrSchemaNotFound is returned when an organization has no form schema
// for the requested season
var ErrSchemaNotFound = errors.New("form schema not found")

// Repository reads form schemas and scouting records and writes derived
// metrics back
type Repository struct {
	manager *Manager
}

// NewRepository creates a repository over a connected manager
func NewRepository(m *Manager) *Repository {
	return &Repository{manager: m}
}

// orgFormDoc is a document of the orgforms collection
type orgFormDoc struct {
	OrgKey   string          `bson:"org_key"`
	Year     int             `bson:"year"`
	FormType string          `bson:"form_type"`
	Derived  []schema.Metric `bson:"derived"`
}

// recordDoc is a document of the matchscouting and pitscouting collections
type recordDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	TeamKey  string             `bson:"team_key"`
	MatchKey string             `bson:"match_key"`
	Data     bson.M             `bson:"data"`
}

// RecordFilter selects the scouting records to recompute
type RecordFilter struct {
	Form     string
	OrgKey   string
	Year     int
	EventKey string
	TeamKey  string
	Limit    int64
}

// BSON returns the query document of the filter
func (f RecordFilter) BSON() bson.D {
	filter := bson.D{
		{Key: "org_key", Value: f.OrgKey},
		{Key: "year", Value: f.Year},
	}
	if f.EventKey != "" {
		filter = append(filter, bson.E{Key: "event_key", Value: f.EventKey})
	}
	if f.TeamKey != "" {
		filter = append(filter, bson.E{Key: "team_key", Value: f.TeamKey})
	}
	// unscouted placeholders carry no data yet
	filter = append(filter, bson.E{Key: "data", Value: bson.D{{Key: "$exists", Value: true}}})
	return filter
}

// LoadSchema returns the derived metrics of an organization's form
func (r *Repository) LoadSchema(ctx context.Context, orgKey string, year int, form string) (*schema.Schema, error) {
	filter := bson.D{
		{Key: "org_key", Value: orgKey},
		{Key: "year", Value: year},
		{Key: "form_type", Value: form},
	}

	var doc orgFormDoc
	err := r.manager.Collection(CollectionOrgForms, true).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: org %s year %d form %s", ErrSchemaNotFound, orgKey, year, form)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load form schema: %w", err)
	}

	s := &schema.Schema{
		OrgKey:  doc.OrgKey,
		Year:    doc.Year,
		Form:    doc.FormType,
		Derived: doc.Derived,
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("stored form schema is invalid: %w", err)
	}
	return s, nil
}

// FindRecords returns the scouting records matching the filter, oldest
// first
func (r *Repository) FindRecords(ctx context.Context, f RecordFilter) ([]*recompute.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := r.manager.Collection(f.Form, true).Find(ctx, f.BSON(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", f.Form, err)
	}
	defer cursor.Close(ctx)

	var records []*recompute.Record
	for cursor.Next(ctx) {
		var doc recordDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s record: %w", f.Form, err)
		}
		records = append(records, &recompute.Record{
			ID:       doc.ID.Hex(),
			TeamKey:  doc.TeamKey,
			MatchKey: doc.MatchKey,
			Data:     doc.Data,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s records: %w", f.Form, err)
	}
	return records, nil
}

// SaveOutcomes writes derived metrics and failures back to their records
// in one unordered bulk write. It returns the number of modified records.
func (r *Repository) SaveOutcomes(ctx context.Context, form string, outcomes []*recompute.Outcome) (int64, error) {
	var result *multierror.Error
	now := time.Now().UTC()

	models := make([]mongo.WriteModel, 0, len(outcomes))
	for _, o := range outcomes {
		id, err := primitive.ObjectIDFromHex(o.RecordID)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("record %q: %w", o.RecordID, err))
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: id}}).
			SetUpdate(outcomeUpdate(o, now)))
	}
	if len(models) == 0 {
		return 0, result.ErrorOrNil()
	}

	res, err := r.manager.Collection(form, false).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to save derived metrics: %w", err))
	}
	var modified int64
	if res != nil {
		modified = res.ModifiedCount
	}
	return modified, result.ErrorOrNil()
}

// outcomeUpdate builds the update document of one record. Answers are set
// under derived.<id>. A failed metric has its derived.<id> removed and is
// listed in derived_errors, which is removed when every metric succeeded.
func outcomeUpdate(o *recompute.Outcome, now time.Time) bson.D {
	ids := make([]string, 0, len(o.Answers))
	for id := range o.Answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	set := bson.D{}
	for _, id := range ids {
		set = append(set, bson.E{Key: "derived." + id, Value: o.Answers[id]})
	}
	set = append(set, bson.E{Key: "derived_at", Value: now})

	if len(o.Failures) == 0 {
		return bson.D{
			{Key: "$set", Value: set},
			{Key: "$unset", Value: bson.D{{Key: "derived_errors", Value: ""}}},
		}
	}

	unset := bson.D{}
	removed := make(map[string]bool, len(o.Failures))
	failures := make(bson.A, 0, len(o.Failures))
	for _, f := range o.Failures {
		failures = append(failures, bson.D{
			{Key: "metric_id", Value: f.MetricID},
			{Key: "formula", Value: f.Formula},
			{Key: "kind", Value: string(f.Kind)},
			{Key: "reason", Value: f.Reason},
		})
		// a repeated id may fail while its first definition succeeded
		if _, ok := o.Answers[f.MetricID]; ok || removed[f.MetricID] || f.MetricID == "" {
			continue
		}
		removed[f.MetricID] = true
		unset = append(unset, bson.E{Key: "derived." + f.MetricID, Value: ""})
	}
	set = append(set, bson.E{Key: "derived_errors", Value: failures})

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}
