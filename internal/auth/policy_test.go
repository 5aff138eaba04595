package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/aslanbek/gigpay/internal/model"
)

func TestIsOwner(t *testing.T) {
	clientID := uuid.New()
	contractorID := uuid.New()
	contract := &model.Contract{
		ID:           uuid.New(),
		ClientID:     clientID,
		ContractorID: contractorID,
	}

	assert.True(t, IsOwner(&model.Profile{ID: clientID}, contract))
	assert.True(t, IsOwner(&model.Profile{ID: contractorID}, contract))
	assert.False(t, IsOwner(&model.Profile{ID: uuid.New()}, contract))
	assert.False(t, IsOwner(nil, contract))
	assert.False(t, IsOwner(&model.Profile{ID: clientID}, nil))
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, IsClient(&model.Profile{Role: model.RoleClient}))
	assert.False(t, IsClient(&model.Profile{Role: model.RoleContractor}))
	assert.False(t, IsClient(nil))

	assert.True(t, IsAdmin(&model.Profile{Role: model.RoleAdmin}))
	assert.False(t, IsAdmin(&model.Profile{Role: model.RoleClient}))
	assert.False(t, IsAdmin(nil))
}
