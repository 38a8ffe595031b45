//go:build integration

package mongo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/yadev/crm-system/internal/core/domain"
)

func setupMongo(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start mongo container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate mongo container: %v", err)
		}
	})

	// Transactions need a replica set; a single-member one is enough.
	code, _, err := container.Exec(ctx, []string{"mongosh", "--quiet", "--eval",
		`rs.initiate({_id: "rs0", members: [{_id: 0, host: "localhost:27017"}]})`})
	require.NoError(t, err)
	require.Zero(t, code, "rs.initiate failed")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, db, err := Connect(ctx, Config{
		URI:      fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port()),
		Database: "crm_test",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		var hello struct {
			IsWritablePrimary bool `bson:"isWritablePrimary"`
		}
		err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
		return err == nil && hello.IsWritablePrimary
	}, 30*time.Second, 200*time.Millisecond, "replica set never elected a primary")

	s := NewStore(client, db, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func TestMongoStore_Repositories(t *testing.T) {
	s := setupMongo(t)
	ctx := context.Background()

	doe, err := s.Customers().Save(ctx, &domain.Customer{LastName: "Doe"})
	require.NoError(t, err)
	ade, err := s.Customers().Save(ctx, &domain.Customer{LastName: "Ade"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, doe.ID)
	assert.EqualValues(t, 2, ade.ID)

	list, err := s.Customers().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ade", list[0].LastName)

	_, err = s.Customers().Save(ctx, &domain.Customer{ID: 99, LastName: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	o, err := s.Orders().Save(ctx, &domain.Order{Label: "x", Tax: 20, CustomerID: doe.ID})
	require.NoError(t, err)
	n, err := s.Orders().CountByCustomer(ctx, doe.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	got, err := s.Orders().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	_, err = s.Users().Save(ctx, &domain.User{Username: "bob", PasswordHash: "h", Roles: domain.NewRoleSet(domain.RoleUser)})
	require.NoError(t, err)
	_, err = s.Users().Save(ctx, &domain.User{Username: "bob", PasswordHash: "h", Roles: domain.NewRoleSet(domain.RoleUser)})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	require.NoError(t, s.Orders().Delete(ctx, o.ID))
	assert.ErrorIs(t, s.Orders().Delete(ctx, o.ID), domain.ErrOrderNotFound)

	ev := &domain.AuditEvent{ID: "e1", Resource: domain.ResourceOrder, Action: domain.ActionDelete, EntityID: o.ID, OccurredAt: time.Now()}
	require.NoError(t, s.Audit().InsertAudit(ctx, ev))
	require.NoError(t, s.Audit().InsertAudit(ctx, ev))
}

func TestMongoStore_LockedCustomerBlocksConcurrentTx(t *testing.T) {
	s := setupMongo(t)
	ctx := context.Background()

	doe, err := s.Customers().Save(ctx, &domain.Customer{LastName: "Doe"})
	require.NoError(t, err)

	locked := make(chan struct{})
	done := make(chan struct{})
	var deleteErr error
	go func() {
		defer close(done)
		deleteErr = s.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.Customers().FindByID(ctx, doe.ID); err != nil {
				return err
			}
			n, err := s.Orders().CountByCustomer(ctx, doe.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.ErrCustomerHasOrders
			}
			close(locked)
			time.Sleep(300 * time.Millisecond)
			return s.Customers().Delete(ctx, doe.ID)
		})
	}()

	<-locked
	createErr := s.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Customers().FindByID(ctx, doe.ID); err != nil {
			return err
		}
		_, err := s.Orders().Save(ctx, &domain.Order{Label: "late", CustomerID: doe.ID})
		return err
	})
	<-done

	require.NoError(t, deleteErr)
	assert.ErrorIs(t, createErr, domain.ErrConcurrentModification)

	n, err := s.Orders().CountByCustomer(ctx, doe.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "order committed against a deleted customer")

	_, err = s.Customers().FindByID(ctx, doe.ID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
