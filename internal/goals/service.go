package goals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jdelaire/goalbot/core/policy"
	"github.com/jdelaire/goalbot/internal/store"
)

const (
	dateLayout     = "2006-01-02"
	maxTitleLength = 255
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("permission denied")
	ErrEmptyTitle   = errors.New("title is empty")
	ErrTitleTooLong = fmt.Errorf("title is longer than %d characters", maxTitleLength)
	ErrEmptyText    = errors.New("text is empty")
)

// hidden lists goal states that never appear in listings or detail.
var hidden = []store.GoalStatus{store.StatusArchived}

// CategoryDetail is a category with the number of visible goals in it.
type CategoryDetail struct {
	Category  *store.Category
	GoalCount int
}

// BoardDetail is a board with its participants.
type BoardDetail struct {
	Board        *store.Board
	Participants []*store.Participant
}

// Service exposes goal, category, board and comment operations scoped
// to one account. Everything it returns has passed the board
// participation rules: reads need any role, writes need owner or writer.
type Service struct {
	store *store.Store
	now   func() time.Time
}

func NewService(s *store.Store) *Service {
	return &Service{
		store: s,
		now:   time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Today returns the current local date as YYYY-MM-DD.
func (s *Service) Today() string {
	return s.now().In(time.Local).Format(dateLayout)
}

func (s *Service) Account(ctx context.Context, accountID int64) (*store.Account, error) {
	a, err := s.store.GetAccount(ctx, &store.FindAccount{ID: &accountID})
	return a, translate(err)
}

func (s *Service) ListGoals(ctx context.Context, accountID int64) ([]*store.Goal, error) {
	list, err := s.store.ListGoals(ctx, &store.FindGoal{
		AccountID:       accountID,
		Roles:           policy.RolesFor(policy.ActionRead),
		ExcludeStatuses: hidden,
	})
	return list, translate(err)
}

func (s *Service) GetGoal(ctx context.Context, accountID, goalID int64) (*store.Goal, error) {
	g, err := s.store.GetGoal(ctx, &store.FindGoal{
		AccountID:       accountID,
		ID:              &goalID,
		Roles:           policy.RolesFor(policy.ActionRead),
		ExcludeStatuses: hidden,
	})
	return g, translate(err)
}

// DueGoals returns visible goals that are neither done nor archived and
// whose due date is on or before today.
func (s *Service) DueGoals(ctx context.Context, accountID int64, today string) ([]*store.Goal, error) {
	list, err := s.store.ListGoals(ctx, &store.FindGoal{
		AccountID:       accountID,
		Roles:           policy.RolesFor(policy.ActionRead),
		ExcludeStatuses: []store.GoalStatus{store.StatusDone, store.StatusArchived},
		DueOnOrBefore:   &today,
	})
	return list, translate(err)
}

func (s *Service) ListCategories(ctx context.Context, accountID int64) ([]*store.Category, error) {
	list, err := s.store.ListCategories(ctx, &store.FindCategory{
		AccountID: accountID,
		Roles:     policy.RolesFor(policy.ActionRead),
	})
	return list, translate(err)
}

func (s *Service) GetCategory(ctx context.Context, accountID, categoryID int64) (*CategoryDetail, error) {
	c, err := s.store.GetCategory(ctx, &store.FindCategory{
		AccountID: accountID,
		ID:        &categoryID,
		Roles:     policy.RolesFor(policy.ActionRead),
	})
	if err != nil {
		return nil, translate(err)
	}
	goals, err := s.store.ListGoals(ctx, &store.FindGoal{
		AccountID:       accountID,
		CategoryID:      &categoryID,
		ExcludeStatuses: hidden,
	})
	if err != nil {
		return nil, translate(err)
	}
	return &CategoryDetail{Category: c, GoalCount: len(goals)}, nil
}

func (s *Service) ListBoards(ctx context.Context, accountID int64) ([]*store.Board, error) {
	list, err := s.store.ListBoards(ctx, &store.FindBoard{
		AccountID: accountID,
		Roles:     policy.RolesFor(policy.ActionRead),
	})
	return list, translate(err)
}

func (s *Service) GetBoard(ctx context.Context, accountID, boardID int64) (*BoardDetail, error) {
	b, err := s.store.GetBoard(ctx, &store.FindBoard{
		AccountID: accountID,
		ID:        &boardID,
		Roles:     policy.RolesFor(policy.ActionRead),
	})
	if err != nil {
		return nil, translate(err)
	}
	participants, err := s.store.ListParticipants(ctx, boardID)
	if err != nil {
		return nil, translate(err)
	}
	return &BoardDetail{Board: b, Participants: participants}, nil
}

func (s *Service) ListComments(ctx context.Context, accountID, goalID int64) ([]*store.Comment, error) {
	if _, err := s.GetGoal(ctx, accountID, goalID); err != nil {
		return nil, err
	}
	list, err := s.store.ListComments(ctx, goalID)
	return list, translate(err)
}

func (s *Service) AddComment(ctx context.Context, accountID, goalID int64, text string) (*store.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	c, err := s.store.CreateComment(ctx, &store.CreateComment{
		AccountID:       accountID,
		GoalID:          goalID,
		Text:            text,
		Roles:           policy.RolesFor(policy.ActionWrite),
		ExcludeStatuses: hidden,
	})
	if errors.Is(err, store.ErrNotFound) {
		if _, readErr := s.GetGoal(ctx, accountID, goalID); readErr == nil {
			return nil, ErrForbidden
		}
	}
	return c, translate(err)
}

func (s *Service) CreateGoal(ctx context.Context, accountID, categoryID int64, title string) (*store.Goal, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	g, err := s.store.CreateGoal(ctx, &store.CreateGoal{
		AccountID:  accountID,
		CategoryID: categoryID,
		Title:      title,
		Status:     store.StatusToDo,
		Priority:   store.PriorityMedium,
		Roles:      policy.RolesFor(policy.ActionWrite),
	})
	if errors.Is(err, store.ErrNotFound) {
		if _, readErr := s.GetCategory(ctx, accountID, categoryID); readErr == nil {
			return nil, ErrForbidden
		}
	}
	return g, translate(err)
}

func (s *Service) CreateCategory(ctx context.Context, accountID, boardID int64, title string) (*store.Category, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	c, err := s.store.CreateCategory(ctx, &store.CreateCategory{
		AccountID: accountID,
		BoardID:   boardID,
		Title:     title,
		Roles:     policy.RolesFor(policy.ActionWrite),
	})
	if errors.Is(err, store.ErrNotFound) {
		if _, readErr := s.GetBoard(ctx, accountID, boardID); readErr == nil {
			return nil, ErrForbidden
		}
	}
	return c, translate(err)
}

func (s *Service) CreateBoard(ctx context.Context, accountID int64, title string) (*store.Board, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	b, err := s.store.CreateBoard(ctx, accountID, title)
	return b, translate(err)
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
