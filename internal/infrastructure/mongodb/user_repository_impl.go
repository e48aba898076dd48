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

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Age       int                `bson:"age"`
	Avatar    []byte             `bson:"avatar,omitempty"`
	Tokens    []string           `bson:"tokens"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toEntity() *entity.User {
	tokens := d.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	return &entity.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		Age:       d.Age,
		Tokens:    tokens,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// withoutAvatar keeps profile reads small; avatars are only read by GetAvatar.
var withoutAvatar = bson.M{"avatar": 0}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	if u.Tokens == nil {
		u.Tokens = []string{}
	}
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		Age:       u.Age,
		Avatar:    u.Avatar,
		Tokens:    u.Tokens,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = doc.ID.Hex()
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(withoutAvatar)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid, "tokens": token})
}

// userChangesUpdate builds the $set document for a profile update.
func userChangesUpdate(ch repository.UserChanges, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if ch.Name != nil {
		set["name"] = *ch.Name
	}
	if ch.Email != nil {
		set["email"] = *ch.Email
	}
	if ch.Password != nil {
		set["password"] = *ch.Password
	}
	if ch.Age != nil {
		set["age"] = *ch.Age
	}
	return bson.M{"$set": set}
}

func (r *UserRepository) Update(ctx context.Context, id string, ch repository.UserChanges) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutAvatar)
	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, userChangesUpdate(ch, time.Now().UTC()), opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, repository.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, repository.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddToken(ctx context.Context, id, token string) error {
	return r.updateOne(ctx, id, bson.M{
		"$push": bson.M{"tokens": token},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *UserRepository) RemoveToken(ctx context.Context, id, token string) error {
	return r.updateOne(ctx, id, bson.M{
		"$pull": bson.M{"tokens": token},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *UserRepository) ClearTokens(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{"tokens": bson.A{}, "updatedAt": time.Now().UTC()},
	})
}

func (r *UserRepository) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	now := time.Now().UTC()
	if avatar == nil {
		return r.updateOne(ctx, id, bson.M{"$unset": bson.M{"avatar": ""}, "$set": bson.M{"updatedAt": now}})
	}
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"avatar": avatar, "updatedAt": now}})
}

func (r *UserRepository) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc struct {
		Avatar []byte `bson:"avatar"`
	}
	opts := options.FindOne().SetProjection(bson.M{"avatar": 1})
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find avatar: %w", err)
	}
	if len(doc.Avatar) == 0 {
		return nil, repository.ErrNotFound
	}
	return doc.Avatar, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
