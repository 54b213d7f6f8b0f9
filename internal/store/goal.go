package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jdelaire/goalbot/core/policy"
)

// GoalStatus is the workflow state of a goal.
type GoalStatus int

const (
	StatusToDo       GoalStatus = 1
	StatusInProgress GoalStatus = 2
	StatusDone       GoalStatus = 3
	StatusArchived   GoalStatus = 4
)

func (s GoalStatus) String() string {
	switch s {
	case StatusToDo:
		return "to do"
	case StatusInProgress:
		return "in progress"
	case StatusDone:
		return "done"
	case StatusArchived:
		return "archived"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// GoalPriority ranks goals from low to critical.
type GoalPriority int

const (
	PriorityLow      GoalPriority = 1
	PriorityMedium   GoalPriority = 2
	PriorityHigh     GoalPriority = 3
	PriorityCritical GoalPriority = 4
)

func (p GoalPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Goal is a tracked task inside a category.
type Goal struct {
	ID          int64
	CategoryID  int64
	AccountID   int64
	Title       string
	Description string
	Status      GoalStatus
	Priority    GoalPriority
	// DueDate is YYYY-MM-DD when set.
	DueDate   *string
	CreatedTs int64
	UpdatedTs int64

	CategoryTitle string
}

// FindGoal selects goals in categories visible to AccountID.
type FindGoal struct {
	AccountID       int64
	ID              *int64
	CategoryID      *int64
	Roles           []policy.Role
	ExcludeStatuses []GoalStatus
	// DueOnOrBefore keeps goals whose due date is set and not after it.
	DueOnOrBefore *string
}

// CreateGoal describes a new goal.
type CreateGoal struct {
	AccountID   int64
	CategoryID  int64
	Title       string
	Description string
	Status      GoalStatus
	Priority    GoalPriority
	DueDate     *string
	// Roles the creator must hold on the category's board.
	Roles []policy.Role
}

// ListGoals returns visible goals ordered by title, then id.
func (s *Store) ListGoals(ctx context.Context, find *FindGoal) ([]*Goal, error) {
	return s.listGoals(ctx, s.db, find)
}

func (s *Store) listGoals(ctx context.Context, q queryer, find *FindGoal) ([]*Goal, error) {
	where := []string{"p.account_id = ?", "c.is_deleted = FALSE", "b.is_deleted = FALSE"}
	args := []any{find.AccountID}
	if v := find.ID; v != nil {
		where, args = append(where, "g.id = ?"), append(args, *v)
	}
	if v := find.CategoryID; v != nil {
		where, args = append(where, "g.category_id = ?"), append(args, *v)
	}
	if len(find.ExcludeStatuses) > 0 {
		where = append(where, "g.status NOT IN "+placeholders(len(find.ExcludeStatuses)))
		for _, st := range find.ExcludeStatuses {
			args = append(args, int(st))
		}
	}
	if v := find.DueOnOrBefore; v != nil {
		where, args = append(where, "g.due_date IS NOT NULL", "g.due_date <= ?"), append(args, *v)
	}
	where, args = appendRoles(where, args, "p.role", find.Roles)

	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT g.id, g.category_id, g.account_id, g.title, g.description, g.status, g.priority,
		       g.due_date, g.created_ts, g.updated_ts, c.title
		FROM goal g
		JOIN goal_category c ON c.id = g.category_id
		JOIN board b ON b.id = c.board_id
		JOIN board_participant p ON p.board_id = b.id
		WHERE `+joinWhere(where)+`
		ORDER BY g.title, g.id`), args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var list []*Goal
	for rows.Next() {
		var (
			g   Goal
			due sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.CategoryID, &g.AccountID, &g.Title, &g.Description, &g.Status, &g.Priority,
			&due, &g.CreatedTs, &g.UpdatedTs, &g.CategoryTitle); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.DueDate = nullStringPtr(due)
		list = append(list, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return list, nil
}

// GetGoal returns the visible goal matching find or ErrNotFound.
func (s *Store) GetGoal(ctx context.Context, find *FindGoal) (*Goal, error) {
	return s.getGoal(ctx, s.db, find)
}

func (s *Store) getGoal(ctx context.Context, q queryer, find *FindGoal) (*Goal, error) {
	list, err := s.listGoals(ctx, q, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// CreateGoal checks category access and inserts the goal in one
// transaction. ErrNotFound means the category is missing or the
// account lacks one of create.Roles on its board.
func (s *Store) CreateGoal(ctx context.Context, create *CreateGoal) (*Goal, error) {
	ts := s.timestamp()
	g := &Goal{
		CategoryID:  create.CategoryID,
		AccountID:   create.AccountID,
		Title:       create.Title,
		Description: create.Description,
		Status:      create.Status,
		Priority:    create.Priority,
		DueDate:     create.DueDate,
		CreatedTs:   ts,
		UpdatedTs:   ts,
	}
	if g.Status == 0 {
		g.Status = StatusToDo
	}
	if g.Priority == 0 {
		g.Priority = PriorityMedium
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		categoryID := create.CategoryID
		c, err := s.getCategory(ctx, tx, &FindCategory{AccountID: create.AccountID, ID: &categoryID, Roles: create.Roles})
		if err != nil {
			return err
		}
		g.CategoryTitle = c.Title

		var due any
		if g.DueDate != nil {
			due = *g.DueDate
		}
		err = tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO goal (category_id, account_id, title, description, status, priority, due_date, created_ts, updated_ts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			g.CategoryID, g.AccountID, g.Title, g.Description, int(g.Status), int(g.Priority), due, ts, ts).Scan(&g.ID)
		if err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create goal in category %d: %w", create.CategoryID, err)
	}
	return g, nil
}
