// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/ordering"
)

type Repository interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	FindUserID(ctx context.Context, username string) (string, error)
	UpdateProfile(ctx context.Context, p *Profile) error

	CreateProject(ctx context.Context, p *Project) error
	ListProjects(ctx context.Context, userID string) ([]Project, error)
	DeleteProject(ctx context.Context, userID, id string) error

	CreateExperience(ctx context.Context, e *Experience) error
	ListExperiences(ctx context.Context, userID string) ([]Experience, error)
	DeleteExperience(ctx context.Context, userID, id string) error

	CreateContact(ctx context.Context, c *Contact) error
	ListContacts(ctx context.Context, userID string) ([]Contact, error)
	DeleteContact(ctx context.Context, userID, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT p.user_id, u.username, p.full_name, p.birthday, p.city,
			p.workplace, p.bio, p.avatar_path, p.theme, p.custom_css
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

func (r *repository) FindUserID(ctx context.Context, username string) (string, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `SELECT id FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("find user: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	return id, nil
}

// UpdateProfile overwrites every text field. A NULL avatar keeps the
// stored reference.
func (r *repository) UpdateProfile(ctx context.Context, p *Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $2, birthday = $3, city = $4, workplace = $5,
			bio = $6, theme = $7, custom_css = $8,
			avatar_path = COALESCE($9, avatar_path)
		WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query,
		p.UserID,
		p.FullName,
		p.Birthday,
		p.City,
		p.Workplace,
		p.Bio,
		p.Theme,
		p.CustomCSS,
		p.AvatarPath,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) CreateProject(ctx context.Context, p *Project) error {
	query := `
		INSERT INTO projects (id, user_id, title, description, url, position)
		VALUES ($1, $2, $3, $4, $5, ` + ordering.Projects.NextPositionExpr(2) + `)
		RETURNING position`

	err := r.db.GetContext(ctx, &p.Position, query,
		p.ID,
		p.UserID,
		p.Title,
		p.Description,
		p.URL,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

func (r *repository) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	query := `
		SELECT id, user_id, title, description, url, position
		FROM projects
		WHERE user_id = $1
		ORDER BY ` + ordering.Projects.OrderBy()

	var projects []Project
	if err := r.db.SelectContext(ctx, &projects, query, userID); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

func (r *repository) DeleteProject(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "projects", userID, id)
}

func (r *repository) CreateExperience(ctx context.Context, e *Experience) error {
	query := `
		INSERT INTO experiences
			(id, user_id, role, company, start_date, end_date, description, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, ` + ordering.Experiences.NextPositionExpr(2) + `)
		RETURNING position`

	err := r.db.GetContext(ctx, &e.Position, query,
		e.ID,
		e.UserID,
		e.Role,
		e.Company,
		e.StartDate,
		e.EndDate,
		e.Description,
	)
	if err != nil {
		return fmt.Errorf("create experience: %w", err)
	}

	return nil
}

func (r *repository) ListExperiences(ctx context.Context, userID string) ([]Experience, error) {
	query := `
		SELECT id, user_id, role, company, start_date, end_date, description, position
		FROM experiences
		WHERE user_id = $1
		ORDER BY ` + ordering.Experiences.OrderBy()

	var experiences []Experience
	if err := r.db.SelectContext(ctx, &experiences, query, userID); err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}

	return experiences, nil
}

func (r *repository) DeleteExperience(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "experiences", userID, id)
}

func (r *repository) CreateContact(ctx context.Context, c *Contact) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (id, user_id, label, value) VALUES ($1, $2, $3, $4)`,
		c.ID, c.UserID, c.Label, c.Value,
	)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	return nil
}

func (r *repository) ListContacts(ctx context.Context, userID string) ([]Contact, error) {
	query := `
		SELECT id, user_id, label, value
		FROM contacts
		WHERE user_id = $1
		ORDER BY label ASC`

	var contacts []Contact
	if err := r.db.SelectContext(ctx, &contacts, query, userID); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return contacts, nil
}

func (r *repository) DeleteContact(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "contacts", userID, id)
}

// deleteOwned matches on both id and owner, so a foreign id deletes
// nothing. table is always a literal from this file.
func (r *repository) deleteOwned(ctx context.Context, table, userID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND user_id = $2", table)

	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}

	return nil
}
