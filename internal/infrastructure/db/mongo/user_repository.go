package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yadev/crm-system/internal/core/domain"
)

type userDoc struct {
	ID           int64    `bson:"_id"`
	Username     string   `bson:"username"`
	PasswordHash string   `bson:"password_hash"`
	Mail         string   `bson:"mail"`
	Roles        []string `bson:"roles"`
}

func newUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Mail:         u.Mail,
		Roles:        u.Roles.Strings(),
	}
}

func (d userDoc) toDomain() (*domain.User, error) {
	roles := domain.NewRoleSet()
	for _, r := range d.Roles {
		role := domain.Role(r)
		if !role.Valid() {
			return nil, fmt.Errorf("user %d: stored role %q is unknown", d.ID, r)
		}
		roles[role] = struct{}{}
	}
	return &domain.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Mail:         d.Mail,
		Roles:        roles,
	}, nil
}

type UserRepository struct {
	s   *Store
	col *mongo.Collection
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s, col: s.db.Collection(collectionUsers)}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	doc, err := findOne[userDoc](ctx, r.col, bson.M{"_id": id}, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	doc, err := findOne[userDoc](ctx, r.col, bson.M{"username": username}, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	docs, err := findAll[userDoc](ctx, r.col, bson.M{}, bson.D{{Key: "username", Value: 1}, {Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	doc := newUserDoc(u)
	if doc.ID == 0 {
		id, err := r.s.nextID(ctx, collectionUsers)
		if err != nil {
			return nil, err
		}
		doc.ID = id
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrUsernameTaken
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}
		return doc.toDomain()
	}

	err := replaceByID(ctx, r.col, doc.ID, doc, domain.ErrUserNotFound)
	if mongo.IsDuplicateKeyError(err) {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.col, id, domain.ErrUserNotFound)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{})
}
