package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
)

func newCustomerFixture() (*CustomerService, *stubCustomerRepo, *stubOrderRepo, *recordingAudit) {
	customers := newStubCustomerRepo()
	orders := newStubOrderRepo()
	audit := &recordingAudit{}
	svc := NewCustomerService(customers, orders, &stubTx{}, audit, zerolog.Nop())
	return svc, customers, orders, audit
}

func TestCustomerService_CreateThenList_SortedByLastName(t *testing.T) {
	svc, _, _, _ := newCustomerFixture()
	ctx := context.Background()

	doe, err := svc.Create(ctx, &domain.Customer{LastName: "Doe"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	ade, err := svc.Create(ctx, &domain.Customer{LastName: "Ade"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if doe.ID != 1 || ade.ID != 2 {
		t.Fatalf("unexpected ids: doe=%d ade=%d", doe.ID, ade.ID)
	}

	list, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(list) != 2 || list[0].ID != 2 || list[1].ID != 1 {
		t.Fatalf("expected [Ade(2), Doe(1)], got %+v", list)
	}
}

func TestCustomerService_Create_IgnoresClientID(t *testing.T) {
	svc, repo, _, _ := newCustomerFixture()
	ctx := context.Background()

	first, _ := svc.Create(ctx, &domain.Customer{LastName: "One"})
	second, err := svc.Create(ctx, &domain.Customer{ID: first.ID, LastName: "Two"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a fresh id, got %d twice", second.ID)
	}
	if repo.items[first.ID].LastName != "One" {
		t.Fatalf("first customer was overwritten")
	}
}

func TestCustomerService_GetAfterCreate(t *testing.T) {
	svc, _, _, _ := newCustomerFixture()
	ctx := context.Background()

	in := &domain.Customer{LastName: "Doe", FirstName: "John", Company: "Acme", Mail: "j@acme.io", Active: true}
	created, _ := svc.Create(ctx, in)

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if *got != *created {
		t.Fatalf("expected %+v, got %+v", created, got)
	}
}

func TestCustomerService_Update_NotFoundDoesNotCreate(t *testing.T) {
	svc, repo, _, audit := newCustomerFixture()

	err := svc.Update(context.Background(), &domain.Customer{ID: 42, LastName: "Ghost"})
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if len(repo.items) != 0 || repo.saves != 0 {
		t.Fatalf("update on missing id must not write")
	}
	if len(audit.events) != 0 {
		t.Fatalf("no audit event expected on failure")
	}
}

func TestCustomerService_Update_ReplacesFields(t *testing.T) {
	svc, repo, _, audit := newCustomerFixture()
	ctx := context.Background()

	created, _ := svc.Create(ctx, &domain.Customer{LastName: "Doe", Notes: "old", Active: true})
	err := svc.Update(ctx, &domain.Customer{ID: created.ID, LastName: "Roe", Phone: "555"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	stored := repo.items[created.ID]
	if stored.LastName != "Roe" || stored.Phone != "555" || stored.Notes != "" || stored.Active {
		t.Fatalf("expected full replace, got %+v", stored)
	}
	if len(audit.events) != 2 || audit.events[1].Action != domain.ActionUpdate {
		t.Fatalf("expected create and update audit events, got %+v", audit.events)
	}
}

func TestCustomerService_PatchStatus_OnlyActive(t *testing.T) {
	svc, repo, _, _ := newCustomerFixture()
	ctx := context.Background()

	created, _ := svc.Create(ctx, &domain.Customer{LastName: "Doe", Mail: "d@x.io", Active: true})
	if err := svc.PatchStatus(ctx, created.ID, false); err != nil {
		t.Fatalf("PatchStatus returned error: %v", err)
	}

	stored := repo.items[created.ID]
	want := *created
	want.Active = false
	if *stored != want {
		t.Fatalf("expected %+v, got %+v", want, stored)
	}

	if err := svc.PatchStatus(ctx, 99, true); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerService_DeleteThenGet(t *testing.T) {
	svc, _, _, _ := newCustomerFixture()
	ctx := context.Background()

	created, _ := svc.Create(ctx, &domain.Customer{LastName: "Doe"})
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected NotFound, got %v", err)
	}
}

func TestCustomerService_Delete_BlockedByOrders(t *testing.T) {
	svc, repo, orders, _ := newCustomerFixture()
	ctx := context.Background()

	created, _ := svc.Create(ctx, &domain.Customer{LastName: "Doe"})
	orders.items[1] = &domain.Order{ID: 1, Label: "o", CustomerID: created.ID}

	err := svc.Delete(ctx, created.ID)
	if !errors.Is(err, domain.ErrCustomerHasOrders) {
		t.Fatalf("expected ErrCustomerHasOrders, got %v", err)
	}
	if _, ok := repo.items[created.ID]; !ok {
		t.Fatalf("customer must survive a blocked delete")
	}
}

func TestCustomerService_StoreFailureIsWrapped(t *testing.T) {
	svc, repo, _, _ := newCustomerFixture()
	repo.err = errStoreDown

	_, err := svc.ListAll(context.Background())
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("store failure must not look like NotFound")
	}
}

func TestCustomerService_AuditCarriesActor(t *testing.T) {
	svc, _, _, audit := newCustomerFixture()
	ctx := domain.WithPrincipal(context.Background(), domain.Principal{Username: "autre2"})

	created, _ := svc.Create(ctx, &domain.Customer{LastName: "Doe"})

	if len(audit.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(audit.events))
	}
	ev := audit.events[0]
	if ev.Actor != "autre2" || ev.EntityID != created.ID || ev.Resource != domain.ResourceCustomer || ev.ID == "" {
		t.Fatalf("unexpected audit event %+v", ev)
	}
}
