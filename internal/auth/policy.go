package auth

import "github.com/aslanbek/gigpay/internal/model"

// Pure role and ownership predicates. A denied check must surface as an
// explicit unauthorized outcome upstream, never as a silent empty result.

func IsOwner(profile *model.Profile, contract *model.Contract) bool {
	if profile == nil || contract == nil {
		return false
	}
	return profile.ID == contract.ClientID || profile.ID == contract.ContractorID
}

func IsClient(profile *model.Profile) bool {
	return profile != nil && profile.Role == model.RoleClient
}

func IsAdmin(profile *model.Profile) bool {
	return profile != nil && profile.Role == model.RoleAdmin
}
