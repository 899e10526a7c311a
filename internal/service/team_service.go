package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/config"
	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/repository"
)

// teamProfileCacheTTL keeps profiles warm between assemblies without letting
// stale saturation linger after roster changes.
const teamProfileCacheTTL = 5 * time.Minute

// TeamService serves team saturation profiles with a Redis read-through
// cache. It implements the team directory consumed by team-fit assembly and
// scoring.
type TeamService struct {
	teamRepo *repository.TeamRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo *repository.TeamRepository, rdb *redis.Client, log zerolog.Logger) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "team_service").Logger(),
	}
}

// GetTeamProfile returns a team's saturation profile, or (nil, nil) if the
// team does not exist. Cache misses fall through to PostgreSQL and self-heal.
func (s *TeamService) GetTeamProfile(ctx context.Context, teamID uuid.UUID) (*model.TeamProfile, error) {
	key := config.CacheKey.TeamProfileKey(teamID.String())

	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var profile model.TeamProfile
		if err := json.Unmarshal([]byte(cached), &profile); err == nil {
			return &profile, nil
		}
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Str("team_id", teamID.String()).Msg("Team profile cache read failed")
	}

	profile, err := s.teamRepo.GetTeamProfile(ctx, teamID)
	if err != nil || profile == nil {
		return profile, err
	}

	if payload, err := json.Marshal(profile); err == nil {
		_ = s.rdb.Set(ctx, key, payload, teamProfileCacheTTL).Err()
	}
	return profile, nil
}

// UndersaturatedCompetencies lists the team's coverage gaps below the
// threshold, weakest first.
func (s *TeamService) UndersaturatedCompetencies(ctx context.Context, teamID uuid.UUID, threshold float64) ([]model.CompetencySaturation, error) {
	return s.teamRepo.UndersaturatedCompetencies(ctx, teamID, threshold)
}

// UpsertTeamProfile writes a team's saturation map and drops the stale cache
// entry.
func (s *TeamService) UpsertTeamProfile(ctx context.Context, profile *model.TeamProfile) error {
	if err := s.teamRepo.UpsertTeamProfile(ctx, profile); err != nil {
		return err
	}
	s.rdb.Del(ctx, config.CacheKey.TeamProfileKey(profile.TeamID.String()))
	return nil
}
