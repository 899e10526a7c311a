package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/assembly"
	"github.com/psymetric/psymetric-backend/internal/config"
	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/repository"
	"github.com/psymetric/psymetric-backend/internal/simulation"
)

// simulationCacheTTL bounds how long a cached persona report lives. Reports
// are deterministic per seed, so the TTL only limits cache growth.
const simulationCacheTTL = time.Hour

// TemplateService handles test template business logic: draft authoring, the
// publish gate with its assembly preview, versioning and persona dry runs.
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	catalogRepo  *repository.CatalogRepository
	assemblers   assembly.Registry
	simulator    *simulation.Simulator
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(
	templateRepo *repository.TemplateRepository,
	catalogRepo *repository.CatalogRepository,
	assemblers assembly.Registry,
	simulator *simulation.Simulator,
	rdb *redis.Client,
	log zerolog.Logger,
) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		catalogRepo:  catalogRepo,
		assemblers:   assemblers,
		simulator:    simulator,
		rdb:          rdb,
		log:          log.With().Str("component", "template_service").Logger(),
	}
}

// GetByID fetches a template.
func (s *TemplateService) GetByID(ctx context.Context, id uuid.UUID) (*model.TestTemplate, error) {
	return s.templateRepo.GetByID(ctx, id)
}

// List returns templates, optionally filtered by status.
func (s *TemplateService) List(ctx context.Context, status *model.TemplateStatus) ([]model.TestTemplate, error) {
	return s.templateRepo.List(ctx, status)
}

// Create creates a new DRAFT template. A provided blueprint is type-checked
// against the goal up front so a mismatched draft cannot be saved.
func (s *TemplateService) Create(ctx context.Context, req *model.CreateTemplateRequest) (*model.TestTemplate, error) {
	goal := model.AssessmentGoal(req.Goal)

	if len(req.Blueprint) > 0 {
		if _, err := model.DecodeBlueprint(goal, req.Blueprint); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBlueprint, err)
		}
	}

	t := &model.TestTemplate{
		Title:           req.Title,
		Goal:            goal,
		Blueprint:       req.Blueprint,
		DurationMinutes: req.DurationMinutes,
		PassingScore:    req.PassingScore,
		AllowBack:       req.AllowBack == nil || *req.AllowBack,
		ShuffleOptions:  req.ShuffleOptions != nil && *req.ShuffleOptions,
		Status:          model.TemplateStatusDraft,
		Version:         1,
	}
	if err := s.templateRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

// Update edits a DRAFT template. Published and archived templates are frozen;
// changes require a new version.
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTemplateRequest) (*model.TestTemplate, error) {
	t, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TemplateStatusDraft {
		return nil, ErrTemplateNotDraft
	}

	if req.Title != "" {
		t.Title = req.Title
	}
	if len(req.Blueprint) > 0 {
		if _, err := model.DecodeBlueprint(t.Goal, req.Blueprint); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBlueprint, err)
		}
		t.Blueprint = req.Blueprint
	}
	if req.DurationMinutes > 0 {
		t.DurationMinutes = req.DurationMinutes
	}
	if req.PassingScore != nil {
		t.PassingScore = *req.PassingScore
	}
	if req.AllowBack != nil {
		t.AllowBack = *req.AllowBack
	}
	if req.ShuffleOptions != nil {
		t.ShuffleOptions = *req.ShuffleOptions
	}

	if err := s.templateRepo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

// PublishReport carries the outcome of the publish gate: the published
// template, the preview assembly and any inventory warnings.
type PublishReport struct {
	Template          *model.TestTemplate           `json:"template"`
	PreviewQuestions  int                           `json:"preview_questions"`
	AssemblyWarnings  []string                      `json:"assembly_warnings,omitempty"`
	InventoryWarnings []simulation.InventoryWarning `json:"inventory_warnings,omitempty"`
}

// Publish moves a DRAFT template to PUBLISHED. The gate decodes the blueprint
// and runs a full assembly preview; a template that would produce an empty
// question set cannot be published. Inventory warnings are advisory.
func (s *TemplateService) Publish(ctx context.Context, id uuid.UUID) (*PublishReport, error) {
	t, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TemplateStatusDraft {
		return nil, ErrTemplateNotDraft
	}

	if _, err := model.DecodeBlueprint(t.Goal, t.Blueprint); err != nil {
		return nil, err
	}

	assembler, ok := s.assemblers[t.Goal]
	if !ok {
		return nil, fmt.Errorf("no assembler registered for goal %q", t.Goal)
	}
	preview, err := assembler.Assemble(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("assembly preview: %w", err)
	}
	if len(preview.QuestionIDs) == 0 {
		return nil, ErrEmptyAssembly
	}

	counts, names, err := s.catalogRepo.EligibleQuestionCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory check: %w", err)
	}

	if err := s.templateRepo.UpdateStatus(ctx, id, model.TemplateStatusPublished); err != nil {
		return nil, fmt.Errorf("publish template: %w", err)
	}
	t.Status = model.TemplateStatusPublished

	s.log.Info().
		Str("template_id", id.String()).
		Str("goal", string(t.Goal)).
		Int("preview_questions", len(preview.QuestionIDs)).
		Msg("Template published")

	return &PublishReport{
		Template:          t,
		PreviewQuestions:  len(preview.QuestionIDs),
		AssemblyWarnings:  preview.Warnings,
		InventoryWarnings: simulation.InventoryHealth(counts, names),
	}, nil
}

// Archive retires a published template from circulation. Existing sessions
// and results are untouched.
func (s *TemplateService) Archive(ctx context.Context, id uuid.UUID) error {
	t, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != model.TemplateStatusPublished {
		return ErrTemplateNotPublished
	}
	return s.templateRepo.UpdateStatus(ctx, id, model.TemplateStatusArchived)
}

// NewVersion forks a non-draft template into a fresh DRAFT with an
// incremented version number and a parent link.
func (s *TemplateService) NewVersion(ctx context.Context, id uuid.UUID) (*model.TestTemplate, error) {
	parent, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if parent.Status == model.TemplateStatusDraft {
		return nil, ErrTemplateNotPublished
	}

	child := &model.TestTemplate{
		Title:           parent.Title,
		Goal:            parent.Goal,
		Blueprint:       parent.Blueprint,
		DurationMinutes: parent.DurationMinutes,
		PassingScore:    parent.PassingScore,
		AllowBack:       parent.AllowBack,
		ShuffleOptions:  parent.ShuffleOptions,
		Status:          model.TemplateStatusDraft,
		Version:         parent.Version + 1,
		ParentID:        &parent.ID,
	}
	if err := s.templateRepo.Create(ctx, child); err != nil {
		return nil, fmt.Errorf("create new version: %w", err)
	}
	return child, nil
}

// Simulate runs a deterministic persona dry run against the template's
// current assembly. Reports are cached by seed, so repeating a simulation
// with unchanged inputs is a cache hit.
func (s *TemplateService) Simulate(ctx context.Context, id uuid.UUID, profileName string, abilityLevel int) (*simulation.Report, error) {
	t, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	assembler, ok := s.assemblers[t.Goal]
	if !ok {
		return nil, fmt.Errorf("no assembler registered for goal %q", t.Goal)
	}
	assembled, err := assembler.Assemble(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("assemble for simulation: %w", err)
	}
	if len(assembled.QuestionIDs) == 0 {
		return nil, ErrEmptyAssembly
	}

	profile := simulation.ParsePersona(profileName)
	seed := simulation.Seed(profile, abilityLevel, assembled.QuestionIDs)

	cacheKey := config.CacheKey.SimulationReportKey(id.String(), seed)
	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var report simulation.Report
		if err := json.Unmarshal([]byte(cached), &report); err == nil {
			return &report, nil
		}
		// Corrupt cache entry, recompute below.
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Msg("Simulation cache read failed")
	}

	report, err := s.simulator.RunPersonaSimulation(ctx, assembled.QuestionIDs, profile, abilityLevel)
	if err != nil {
		return nil, err
	}

	counts, names, err := s.catalogRepo.EligibleQuestionCounts(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Inventory check failed during simulation")
	} else {
		report.Warnings = simulation.InventoryHealth(counts, names)
	}

	if payload, err := json.Marshal(report); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, payload, simulationCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Simulation cache write failed")
		}
	}

	return report, nil
}
