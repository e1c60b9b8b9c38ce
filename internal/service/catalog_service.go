package service

import (
	"context"
	"sort"

	"github.com/uok-ict/portal-api/internal/models"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
)

type catalogProgramRepo interface {
	List(ctx context.Context) ([]models.Program, error)
}

// OfficeEntry is one office catalog row with its display metadata.
type OfficeEntry struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
}

// ModuleEntry is one teachable module catalog row.
type ModuleEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CatalogService serves the static office/module catalogs and the program
// catalog table.
type CatalogService struct {
	programs catalogProgramRepo
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(programs catalogProgramRepo) *CatalogService {
	return &CatalogService{programs: programs}
}

// Offices returns the office catalog sorted by code.
func (s *CatalogService) Offices() []OfficeEntry {
	out := make([]OfficeEntry, 0, len(models.Offices))
	for _, code := range sortedKeys(models.Offices) {
		out = append(out, OfficeEntry{Code: code, Name: models.Offices[code], Purpose: models.OfficePurpose[code]})
	}
	return out
}

// Modules returns the teachable module catalog sorted by code.
func (s *CatalogService) Modules() []ModuleEntry {
	out := make([]ModuleEntry, 0, len(models.Modules))
	for _, code := range sortedKeys(models.Modules) {
		out = append(out, ModuleEntry{Code: code, Name: models.Modules[code]})
	}
	return out
}

// Programs returns the program catalog.
func (s *CatalogService) Programs(ctx context.Context) ([]models.Program, error) {
	programs, err := s.programs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
