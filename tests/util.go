package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	email, role, yearID string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	users, err := repo.CreateUsers(context.Background(), user.User{
		Email:          email,
		Name:           "Test",
		Surname:        "User",
		Role:           role,
		AcademicYearID: yearID,
		IsActive:       isActive,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return users[0]
}

// JumpForm returns a two-page form assigned to gestores: answering "No" to Q1 jumps over Q2, straight to Q3.
func JumpForm(yearID string) form.NewForm {
	return form.NewForm{
		Title:          "F1",
		AcademicYearID: yearID,
		AssignedRoles:  []string{user.RoleGestor},
		Fields: []form.Field{
			{ID: "S1", Type: form.TypeSection, Label: "Datos", Fields: []form.Field{
				{ID: "Q1", Type: form.TypeRadio, Label: "¿Participa?", Required: true, Options: []string{"Sí", "No"}, Rules: []form.ConditionalRule{
					{Operator: form.OpEquals, Value: form.Scalar("No"), JumpToFieldID: "Q3"},
				}},
				{ID: "Q2", Type: form.TypeText, Label: "Motivo", Required: true},
			}},
			{ID: "S2", Type: form.TypeSection, Label: "Cierre", Fields: []form.Field{
				{ID: "Q3", Type: form.TypeText, Label: "Comentarios"},
			}},
		},
	}
}

func CreateForm(t *testing.T, svc *form.Service, nf form.NewForm, publish bool) form.Form {
	ctx := context.Background()
	f, err := svc.Create(ctx, nf)
	if err != nil {
		t.Fatalf("CreateForm() failed: %v", err)
	}
	if publish {
		if f, err = svc.Publish(ctx, f.ID); err != nil {
			t.Fatalf("CreateForm() failed to publish: %v", err)
		}
	}
	return f
}
