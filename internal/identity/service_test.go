package identity

import (
	"context"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Name: "Ada", Phone: "+237650000000", Password: "secret1", Role: RoleRegionalLead})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleRegionalLead || user.ID == "" {
		t.Fatalf("unexpected user: %+v", user)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Phone: user.Phone, Password: "secret1"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected same user, got %s", authed.ID)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Phone: user.Phone, Password: "wrong1"}); err == nil {
		t.Fatalf("expected invalid password error")
	}
}

func TestRegisterValidatesParentRole(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	lead, err := svc.Register(ctx, RegisterInput{Name: "Lead", Phone: "1000", Password: "secret1", Role: RoleRegionalLead})
	if err != nil {
		t.Fatalf("register lead: %v", err)
	}

	// A seller cannot attach directly to a regional lead.
	if _, err := svc.Register(ctx, RegisterInput{Name: "Seller", Phone: "1001", Password: "secret1", Role: RoleSeller, ParentID: lead.ID}); err == nil {
		t.Fatalf("expected parent role validation to fail")
	}

	sup, err := svc.Register(ctx, RegisterInput{Name: "Super", Phone: "1002", Password: "secret1", Role: RoleSupervisor, ParentID: lead.ID})
	if err != nil {
		t.Fatalf("register supervisor: %v", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Name: "Seller", Phone: "1003", Password: "secret1", Role: RoleSeller, ParentID: sup.ID}); err != nil {
		t.Fatalf("register seller under supervisor: %v", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	if _, err := svc.Register(context.Background(), RegisterInput{Name: "X", Phone: "1", Password: "secret1", Role: "intern"}); err == nil {
		t.Fatalf("expected unknown role error")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	if _, err := svc.Register(context.Background(), RegisterInput{Name: "X", Phone: "1", Password: "123", Role: RoleSeller}); err == nil {
		t.Fatalf("expected short password error")
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Phone: "2000", Password: "secret1", Role: RoleRegionalLead}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Name: "B", Phone: "2000", Password: "secret1", Role: RoleRegionalLead}); err == nil {
		t.Fatalf("expected duplicate phone error")
	}
}
