package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yadev/crm-system/internal/core/domain"
)

type customerDoc struct {
	ID        int64  `bson:"_id"`
	LastName  string `bson:"lastname"`
	FirstName string `bson:"firstname"`
	Company   string `bson:"company"`
	Mail      string `bson:"mail"`
	Phone     string `bson:"phone"`
	Mobile    string `bson:"mobile"`
	Notes     string `bson:"notes"`
	Active    bool   `bson:"active"`
}

func (d customerDoc) toDomain() *domain.Customer {
	c := domain.Customer(d)
	return &c
}

type CustomerRepository struct {
	s   *Store
	col *mongo.Collection
}

func (s *Store) Customers() *CustomerRepository {
	return &CustomerRepository{s: s, col: s.db.Collection(collectionCustomers)}
}

// FindByID loads a customer. Inside a transaction the customer is locked, so
// deleting it and creating an order against it cannot both commit.
func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	doc, err := lockOne[customerDoc](ctx, r.col, id, domain.ErrCustomerNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*domain.Customer, error) {
	docs, err := findAll[customerDoc](ctx, r.col, bson.M{}, bson.D{{Key: "lastname", Value: 1}, {Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Customer, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *CustomerRepository) Save(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	doc := customerDoc(*c)
	if doc.ID == 0 {
		id, err := r.s.nextID(ctx, collectionCustomers)
		if err != nil {
			return nil, err
		}
		doc.ID = id
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return nil, err
		}
		return doc.toDomain(), nil
	}

	if err := replaceByID(ctx, r.col, doc.ID, doc, domain.ErrCustomerNotFound); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.col, id, domain.ErrCustomerNotFound)
}
