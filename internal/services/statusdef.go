package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floortrack/floortrack-backend/internal/data/repos"
	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/apierr"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

// statusPalette is the allow-listed set of colors a status definition may use.
var statusPalette = map[string]struct{}{
	"#4CAF50": {},
	"#8BC34A": {},
	"#2196F3": {},
	"#03A9F4": {},
	"#FFC107": {},
	"#FF9800": {},
	"#F44336": {},
	"#E91E63": {},
	"#9C27B0": {},
	"#795548": {},
	"#607D8B": {},
	"#9E9E9E": {},
}

var validMachineStates = map[string]struct{}{
	types.MachineStateProduction: {},
	types.MachineStateSetup:      {},
	types.MachineStateStoppage:   {},
}

var validReportTypes = map[string]struct{}{
	types.ReportTypeRequirementNone:        {},
	types.ReportTypeRequirementMalfunction: {},
	types.ReportTypeRequirementGeneral:     {},
}

type CreateStatusDefinitionInput struct {
	Code         string     `json:"code"`
	StationID    *uuid.UUID `json:"station_id,omitempty"`
	MachineState string     `json:"machine_state"`
	LabelHe      string     `json:"label_he"`
	LabelRu      string     `json:"label_ru,omitempty"`
	ColorHex     string     `json:"color_hex"`
	ReportType   string     `json:"report_type,omitempty"`
}

type UpdateStatusDefinitionInput struct {
	LabelHe    *string `json:"label_he,omitempty"`
	LabelRu    *string `json:"label_ru,omitempty"`
	ColorHex   *string `json:"color_hex,omitempty"`
	ReportType *string `json:"report_type,omitempty"`
}

type StatusDefinitionService interface {
	ListForStation(dbc dbctx.Context, stationID uuid.UUID) ([]*types.StatusDefinition, error)
	Create(dbc dbctx.Context, input CreateStatusDefinitionInput) (*types.StatusDefinition, error)
	Update(dbc dbctx.Context, id uuid.UUID, input UpdateStatusDefinitionInput) (*types.StatusDefinition, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	// SeedDefaults installs the protected built-in statuses; safe to call on
	// every boot.
	SeedDefaults(dbc dbctx.Context) error
	// GetDefaultInitial returns the status a fresh session opens under when the
	// caller names none.
	GetDefaultInitial(dbc dbctx.Context) (*types.StatusDefinition, error)
}

type statusDefinitionService struct {
	db      *gorm.DB
	log     *logger.Logger
	defRepo repos.StatusDefinitionRepo
}

func NewStatusDefinitionService(db *gorm.DB, log *logger.Logger, defRepo repos.StatusDefinitionRepo) StatusDefinitionService {
	return &statusDefinitionService{
		db:      db,
		log:     log.With("service", "StatusDefinitionService"),
		defRepo: defRepo,
	}
}

func validateColor(colorHex string) *apierr.Error {
	if _, ok := statusPalette[strings.ToUpper(strings.TrimSpace(colorHex))]; !ok {
		return apierr.New(http.StatusBadRequest, apierr.CodeInvalidColor,
			fmt.Errorf("color %q is not in the allowed palette", colorHex))
	}
	return nil
}

func (s *statusDefinitionService) ListForStation(dbc dbctx.Context, stationID uuid.UUID) ([]*types.StatusDefinition, error) {
	return s.defRepo.ListForStation(dbc, stationID)
}

func (s *statusDefinitionService) Create(dbc dbctx.Context, input CreateStatusDefinitionInput) (*types.StatusDefinition, error) {
	input.Code = strings.TrimSpace(input.Code)
	if input.Code == "" || strings.TrimSpace(input.LabelHe) == "" {
		return nil, apierr.New(http.StatusBadRequest, "", fmt.Errorf("code and label_he are required"))
	}
	if _, ok := validMachineStates[input.MachineState]; !ok {
		return nil, apierr.New(http.StatusBadRequest, "", fmt.Errorf("invalid machine_state %q", input.MachineState))
	}
	if input.ReportType == "" {
		input.ReportType = types.ReportTypeRequirementNone
	}
	if _, ok := validReportTypes[input.ReportType]; !ok {
		return nil, apierr.New(http.StatusBadRequest, "", fmt.Errorf("invalid report_type %q", input.ReportType))
	}
	if aerr := validateColor(input.ColorHex); aerr != nil {
		return nil, aerr
	}

	def := &types.StatusDefinition{
		Code:         input.Code,
		Scope:        types.StatusScopeGlobal,
		MachineState: input.MachineState,
		LabelHe:      input.LabelHe,
		LabelRu:      input.LabelRu,
		ColorHex:     strings.ToUpper(strings.TrimSpace(input.ColorHex)),
		ReportType:   input.ReportType,
	}
	if input.StationID != nil && *input.StationID != uuid.Nil {
		def.Scope = types.StatusScopeStation
		def.StationID = input.StationID
	}

	created, err := s.defRepo.Create(dbc, []*types.StatusDefinition{def})
	if err != nil {
		s.log.Warn("Failed to create status definition", "code", input.Code, "error", err)
		return nil, err
	}
	return created[0], nil
}

func (s *statusDefinitionService) Update(dbc dbctx.Context, id uuid.UUID, input UpdateStatusDefinitionInput) (*types.StatusDefinition, error) {
	def, err := s.defRepo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeStatusDefinitionNotFound,
			fmt.Errorf("status definition %s does not exist", id))
	}
	if def.IsProtected {
		return nil, apierr.New(http.StatusForbidden, apierr.CodeStatusProtected,
			fmt.Errorf("status %q is protected and cannot be edited", def.Code))
	}

	updates := map[string]any{}
	if input.LabelHe != nil {
		updates["label_he"] = *input.LabelHe
	}
	if input.LabelRu != nil {
		updates["label_ru"] = *input.LabelRu
	}
	if input.ColorHex != nil {
		if aerr := validateColor(*input.ColorHex); aerr != nil {
			return nil, aerr
		}
		updates["color_hex"] = strings.ToUpper(strings.TrimSpace(*input.ColorHex))
	}
	if input.ReportType != nil {
		if _, ok := validReportTypes[*input.ReportType]; !ok {
			return nil, apierr.New(http.StatusBadRequest, "", fmt.Errorf("invalid report_type %q", *input.ReportType))
		}
		updates["report_type"] = *input.ReportType
	}
	if len(updates) == 0 {
		return def, nil
	}
	if err := s.defRepo.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.defRepo.GetByID(dbc, id)
}

func (s *statusDefinitionService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	def, err := s.defRepo.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if def == nil {
		return apierr.New(http.StatusNotFound, apierr.CodeStatusDefinitionNotFound,
			fmt.Errorf("status definition %s does not exist", id))
	}
	if def.IsProtected {
		return apierr.New(http.StatusForbidden, apierr.CodeStatusProtected,
			fmt.Errorf("status %q is protected and cannot be deleted", def.Code))
	}
	return s.defRepo.Delete(dbc, id)
}

func (s *statusDefinitionService) SeedDefaults(dbc dbctx.Context) error {
	defaults := []*types.StatusDefinition{
		{
			Code:         types.StatusCodeStationEntry,
			Scope:        types.StatusScopeGlobal,
			MachineState: types.MachineStateStoppage,
			LabelHe:      "כניסה לעמדה",
			LabelRu:      "Вход на станцию",
			ColorHex:     "#9E9E9E",
			ReportType:   types.ReportTypeRequirementNone,
			IsProtected:  true,
		},
		{
			Code:         types.StatusCodeProduction,
			Scope:        types.StatusScopeGlobal,
			MachineState: types.MachineStateProduction,
			LabelHe:      "ייצור",
			LabelRu:      "Производство",
			ColorHex:     "#4CAF50",
			ReportType:   types.ReportTypeRequirementNone,
			IsProtected:  true,
		},
		{
			Code:         types.StatusCodeSetup,
			Scope:        types.StatusScopeGlobal,
			MachineState: types.MachineStateSetup,
			LabelHe:      "כיוון",
			LabelRu:      "Наладка",
			ColorHex:     "#2196F3",
			ReportType:   types.ReportTypeRequirementNone,
			IsProtected:  true,
		},
		{
			Code:         types.StatusCodeMalfunction,
			Scope:        types.StatusScopeGlobal,
			MachineState: types.MachineStateStoppage,
			LabelHe:      "תקלה",
			LabelRu:      "Поломка",
			ColorHex:     "#F44336",
			ReportType:   types.ReportTypeRequirementMalfunction,
			IsProtected:  true,
		},
	}
	for _, def := range defaults {
		existing, err := s.defRepo.GetByCode(dbc, def.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := s.defRepo.Create(dbc, []*types.StatusDefinition{def}); err != nil {
			return err
		}
		s.log.Info("Seeded status definition", "code", def.Code)
	}
	return nil
}

func (s *statusDefinitionService) GetDefaultInitial(dbc dbctx.Context) (*types.StatusDefinition, error) {
	def, err := s.defRepo.GetByCode(dbc, types.StatusCodeStationEntry)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeStatusDefinitionNotFound,
			fmt.Errorf("default initial status %q is not seeded", types.StatusCodeStationEntry))
	}
	return def, nil
}
