package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/models"
	apperrors "github.com/sonvt1710/graylog2-server/pkg/errors"
)

var (
	// ErrTeamNotFound indicates the requested team does not exist.
	ErrTeamNotFound = apperrors.New("TEAM_NOT_FOUND", "Team not found", http.StatusNotFound)
	// ErrTeamMemberAlreadyExists signals the user is already a member of the team.
	ErrTeamMemberAlreadyExists = apperrors.New("TEAM_MEMBER_EXISTS", "User already assigned to team", http.StatusConflict)
	// ErrTeamMemberNotFound indicates the requested membership does not exist.
	ErrTeamMemberNotFound = apperrors.New("TEAM_MEMBER_NOT_FOUND", "User is not a member of the team", http.StatusNotFound)
)

// CreateTeamInput captures new team metadata.
type CreateTeamInput struct {
	Name        string
	Description string
}

// TeamService handles teams and their membership. Teams are grantees in their own right.
type TeamService struct {
	db *gorm.DB
}

// NewTeamService constructs a TeamService instance.
func NewTeamService(db *gorm.DB) (*TeamService, error) {
	if db == nil {
		return nil, errors.New("team service: db is required")
	}
	return &TeamService{db: db}, nil
}

// Create registers a new team.
func (s *TeamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("team name is required")
	}

	team := &models.Team{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}

	if err := s.db.WithContext(ctx).Create(team).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, teamExistsError(name)
		}
		return nil, fmt.Errorf("team service: create team: %w", err)
	}

	return team, nil
}

func teamExistsError(name string) error {
	return apperrors.ErrConflict.WithMessage(fmt.Sprintf("team %q already exists", name))
}

// GetByID loads a team with its members.
func (s *TeamService) GetByID(ctx context.Context, id string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	var team models.Team
	err := s.db.WithContext(ctx).Preload("Users").First(&team, "id = ?", strings.TrimSpace(id)).Error
	if isNotFound(err) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team service: get team: %w", err)
	}
	return &team, nil
}

// List returns every team ordered by name.
func (s *TeamService) List(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := s.db.WithContext(ensureContext(ctx)).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("team service: list teams: %w", err)
	}
	return teams, nil
}

// AddMember assigns a user to the team.
func (s *TeamService) AddMember(ctx context.Context, teamID, userID string) error {
	ctx = ensureContext(ctx)

	team, user, err := s.loadMembership(ctx, teamID, userID)
	if err != nil {
		return err
	}

	for _, member := range team.Users {
		if member.ID == user.ID {
			return ErrTeamMemberAlreadyExists
		}
	}

	if err := s.db.WithContext(ctx).Model(team).Association("Users").Append(user); err != nil {
		return fmt.Errorf("team service: add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from the team.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID string) error {
	ctx = ensureContext(ctx)

	team, user, err := s.loadMembership(ctx, teamID, userID)
	if err != nil {
		return err
	}

	found := false
	for _, member := range team.Users {
		if member.ID == user.ID {
			found = true
			break
		}
	}
	if !found {
		return ErrTeamMemberNotFound
	}

	if err := s.db.WithContext(ctx).Model(team).Association("Users").Delete(user); err != nil {
		return fmt.Errorf("team service: remove member: %w", err)
	}
	return nil
}

func (s *TeamService) loadMembership(ctx context.Context, teamID, userID string) (*models.Team, *models.User, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(userID)).Error
	if isNotFound(err) {
		return nil, nil, ErrUserNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("team service: load user: %w", err)
	}
	return team, &user, nil
}
