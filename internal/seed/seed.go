package seed

import (
	"contas/internal/models"

	"github.com/google/uuid"
)

// DefaultCategories is the category set a brand new household starts with.
var DefaultCategories = []string{
	"🏠 Moradia",
	"🍔 Alimentação",
	"🚗 Transporte",
	"💊 Saúde",
	"📚 Educação",
	"🎮 Lazer",
	"💳 Cartão",
	"📱 Assinaturas",
	"💰 Salário",
	"📦 Outros",
}

// Snapshot builds the first-run snapshot: one admin user, one default group
// and the default category set. Used whenever the local store is empty or
// its contents cannot be decoded.
func Snapshot() models.Snapshot {
	groupID := uuid.New().String()
	admin := models.User{
		ID:       uuid.New().String(),
		Name:     "Administrador",
		Username: "admin",
		Password: "admin",
		Role:     models.RoleAdmin,
		Groups:   []string{groupID},
	}

	return models.Snapshot{
		Users:      []models.User{admin},
		Groups:     []models.Group{{ID: groupID, Name: "Casa"}},
		Accounts:   []models.Account{},
		Incomes:    []models.Income{},
		Categories: append([]string(nil), DefaultCategories...),
		Settings:   models.AppSettings{AppName: "Contas"},
	}
}
