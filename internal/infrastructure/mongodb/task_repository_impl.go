package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	Owner       primitive.ObjectID `bson:"owner"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *taskDocument) toEntity() *entity.Task {
	return &entity.Task{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Completed:   d.Completed,
		Owner:       d.Owner.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type TaskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{coll: db.Collection(tasksCollection)}
}

// ownedFilter matches task id only when it belongs to owner. ok is false when
// either id is malformed, which callers treat as not found.
func ownedFilter(id, owner string) (bson.M, bool) {
	tid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": tid, "owner": oid}, true
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	owner, err := primitive.ObjectIDFromHex(t.Owner)
	if err != nil {
		return fmt.Errorf("insert task: invalid owner %q", t.Owner)
	}
	now := time.Now().UTC()
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	t.ID = doc.ID.Hex()
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

// taskListFilter selects the owner's tasks, optionally by completion.
func taskListFilter(owner primitive.ObjectID, q repository.TaskQuery) bson.M {
	filter := bson.M{"owner": owner}
	if q.Completed != nil {
		filter["completed"] = *q.Completed
	}
	return filter
}

// taskFindOptions orders by the requested field then _id so pages are stable.
func taskFindOptions(q repository.TaskQuery) *options.FindOptions {
	field := q.SortField
	if field == "" {
		field = repository.SortCreatedAt
	}
	dir := 1
	if q.SortDesc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	return opts
}

func (r *TaskRepository) List(ctx context.Context, owner string, q repository.TaskQuery) ([]*entity.Task, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return []*entity.Task{}, nil
	}
	cursor, err := r.coll.Find(ctx, taskListFilter(oid, q), taskFindOptions(q))
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	out := make([]*entity.Task, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

func (r *TaskRepository) GetForOwner(ctx context.Context, id, owner string) (*entity.Task, error) {
	filter, ok := ownedFilter(id, owner)
	if !ok {
		return nil, repository.ErrNotFound
	}
	var doc taskDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return doc.toEntity(), nil
}

// taskChangesUpdate builds the $set document for a task update.
func taskChangesUpdate(ch repository.TaskChanges, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if ch.Description != nil {
		set["description"] = *ch.Description
	}
	if ch.Completed != nil {
		set["completed"] = *ch.Completed
	}
	return bson.M{"$set": set}
}

func (r *TaskRepository) UpdateForOwner(ctx context.Context, id, owner string, ch repository.TaskChanges) (*entity.Task, error) {
	filter, ok := ownedFilter(id, owner)
	if !ok {
		return nil, repository.ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, taskChangesUpdate(ch, time.Now().UTC()), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *TaskRepository) DeleteForOwner(ctx context.Context, id, owner string) (*entity.Task, error) {
	filter, ok := ownedFilter(id, owner)
	if !ok {
		return nil, repository.ErrNotFound
	}
	var doc taskDocument
	if err := r.coll.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *TaskRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"owner": oid})
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return res.DeletedCount, nil
}

var _ repository.TaskRepository = (*TaskRepository)(nil)
