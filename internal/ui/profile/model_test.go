package profile

import (
	"testing"

	"github.com/avasquez/eventdesk/internal/model"
)

func TestSubmitCarriesIdentityAndTrimsFields(t *testing.T) {
	m := New(80, 24)
	m.Start(model.User{
		UserID: 9,
		Name:   "Ann",
		Email:  "ann@example.com",
		Role:   model.RoleOrganiser,
	})

	m.fb.name = "  Ann Lee "
	m.fb.email = " ann.lee@example.com "
	m.fb.newPassword = "s3cret"

	msg, ok := m.handleSubmit()().(SubmitMsg)
	if !ok {
		t.Fatal("submit did not produce a SubmitMsg")
	}
	if msg.User.UserID != 9 || msg.User.Role != model.RoleOrganiser {
		t.Errorf("identity not preserved: %+v", msg.User)
	}
	if msg.User.Name != "Ann Lee" || msg.User.Email != "ann.lee@example.com" {
		t.Errorf("fields not trimmed: %+v", msg.User)
	}
	if msg.NewPassword != "s3cret" {
		t.Errorf("NewPassword = %q, want the entered value", msg.NewPassword)
	}
}

func TestSubmitWithoutPasswordChange(t *testing.T) {
	m := New(80, 24)
	m.Start(model.User{UserID: 4, Name: "Bo", Email: "bo@example.com", Role: model.RoleUser})

	msg := m.handleSubmit()().(SubmitMsg)
	if msg.NewPassword != "" {
		t.Errorf("NewPassword = %q, want empty when untouched", msg.NewPassword)
	}
}
