package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yadev/crm-system/internal/core/domain"
)

type orderDoc struct {
	ID           int64   `bson:"_id"`
	Label        string  `bson:"label"`
	Address      string  `bson:"adr_et"`
	Type         string  `bson:"type"`
	Status       string  `bson:"status"`
	Notes        string  `bson:"notes"`
	Tax          float64 `bson:"tva"`
	NumberOfDays float64 `bson:"number_of_days"`
	CustomerID   int64   `bson:"customer_id"`
}

func (d orderDoc) toDomain() *domain.Order {
	o := domain.Order(d)
	return &o
}

type OrderRepository struct {
	s   *Store
	col *mongo.Collection
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{s: s, col: s.db.Collection(collectionOrders)}
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	doc, err := findOne[orderDoc](ctx, r.col, bson.M{"_id": id}, domain.ErrOrderNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *OrderRepository) list(ctx context.Context, filter bson.M, sort bson.D) ([]*domain.Order, error) {
	docs, err := findAll[orderDoc](ctx, r.col, filter, sort)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Order, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{}, bson.D{{Key: "label", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *OrderRepository) FindByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{"customer_id": customerID}, bson.D{{Key: "_id", Value: 1}})
}

func (r *OrderRepository) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{"customer_id": customerID})
}

func (r *OrderRepository) Save(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	doc := orderDoc(*o)
	if doc.ID == 0 {
		id, err := r.s.nextID(ctx, collectionOrders)
		if err != nil {
			return nil, err
		}
		doc.ID = id
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return nil, err
		}
		return doc.toDomain(), nil
	}

	if err := replaceByID(ctx, r.col, doc.ID, doc, domain.ErrOrderNotFound); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.col, id, domain.ErrOrderNotFound)
}
