package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"valid member", User{Username: "c0007", DisplayName: "Chen", Role: RoleMember}, false},
		{"valid approver", User{Username: "boss.lin", DisplayName: "Lin", Role: RoleApprover}, false},
		{"short username", User{Username: "ab", DisplayName: "A", Role: RoleMember}, true},
		{"username with spaces", User{Username: "a b c", DisplayName: "A", Role: RoleMember}, true},
		{"missing display name", User{Username: "abc", Role: RoleMember}, true},
		{"unknown role", User{Username: "abc", DisplayName: "A", Role: "admin"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUser_Actor(t *testing.T) {
	id := uuid.New()
	var actor Actor = &User{ID: id, DisplayName: "Lin", Role: RoleApprover}

	assert.Equal(t, id, actor.ActorID())
	assert.Equal(t, "Lin", actor.ActorName())
	assert.True(t, actor.IsApprover())

	member := &User{Role: RoleMember}
	assert.False(t, member.IsApprover())
}

func TestTokenActor(t *testing.T) {
	id := uuid.New()
	var actor Actor = TokenActor{ID: id, Name: "Wu", Approver: false}

	assert.Equal(t, id, actor.ActorID())
	assert.Equal(t, "Wu", actor.ActorName())
	assert.False(t, actor.IsApprover())
}
