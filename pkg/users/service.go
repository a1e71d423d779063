package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/database"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

const resourceName = "User"

// Service handles user operations.
type Service struct {
	db         *bun.DB
	maxRetries int
}

// NewService creates a new users service.
func NewService(db *bun.DB, maxRetries int) *Service {
	return &Service{db: db, maxRetries: maxRetries}
}

// CreateUserOptions contains options for creating a user.
type CreateUserOptions struct {
	Email    string
	Username string
	Password string
	FullName *string
}

// Register creates an active user with the user role.
func (s *Service) Register(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	var user *models.User
	err := database.RunInTx(ctx, s.db, s.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = s.create(ctx, tx, opts, models.RoleUser)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("user registered", logger.Data{"user_id": user.ID})
	return user, nil
}

// BootstrapAdmin creates the first admin. It only succeeds while there are
// no users at all.
func (s *Service) BootstrapAdmin(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	var user *models.User
	err := database.RunInTx(ctx, s.db, s.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		count, err := tx.NewSelect().Model((*models.User)(nil)).Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if count > 0 {
			return errcodes.Forbidden("Setup has already been completed")
		}

		user, err = s.create(ctx, tx, opts, models.RoleAdmin)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("bootstrap admin created", logger.Data{"user_id": user.ID})
	return user, nil
}

func (s *Service) create(ctx context.Context, tx bun.Tx, opts CreateUserOptions, role string) (*models.User, error) {
	exists, err := tx.NewSelect().
		Model((*models.User)(nil)).
		Where("LOWER(username) = LOWER(?)", opts.Username).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.ValidationError("Username already exists")
	}

	exists, err = tx.NewSelect().
		Model((*models.User)(nil)).
		Where("LOWER(email) = LOWER(?)", opts.Email).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.ValidationError("Email already exists")
	}

	hashedPassword, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Email:        opts.Email,
		Username:     opts.Username,
		PasswordHash: hashedPassword,
		FullName:     trimmedOrNil(opts.FullName),
		Role:         role,
		IsActive:     true,
	}

	_, err = tx.NewInsert().
		Model(user).
		Returning("*").
		Exec(ctx)
	if err != nil {
		// Lost a race with a concurrent registration.
		if database.IsUniqueViolation(err) {
			return nil, errcodes.ValidationError("Username or email already exists")
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Retrieve gets a user by ID.
func (s *Service) Retrieve(ctx context.Context, actor *models.User, id int) (*models.User, error) {
	if err := auth.Authorize(actor, auth.ActionManageUsers); err != nil {
		return nil, err
	}
	return s.find(ctx, s.db, id)
}

// ListOptions contains options for listing users.
type ListOptions struct {
	Limit  int
	Offset int
}

// List returns a page of users ordered by id, plus the total count.
func (s *Service) List(ctx context.Context, actor *models.User, opts ListOptions) ([]*models.User, int, error) {
	if err := auth.Authorize(actor, auth.ActionManageUsers); err != nil {
		return nil, 0, err
	}

	users := []*models.User{}
	query := s.db.NewSelect().
		Model(&users).
		Order("u.id ASC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

// UpdateOptions contains the fields an admin may change on a user. Nil
// fields are left alone.
type UpdateOptions struct {
	Role     *string
	IsActive *bool
	FullName *string
}

// Update changes a user's role, active flag or full name. Admins cannot
// demote or deactivate themselves.
func (s *Service) Update(ctx context.Context, actor *models.User, id int, opts UpdateOptions) (*models.User, error) {
	if err := auth.Authorize(actor, auth.ActionManageUsers); err != nil {
		return nil, err
	}

	var (
		user    *models.User
		columns []string
	)
	err := database.RunInTx(ctx, s.db, s.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = s.find(ctx, tx, id)
		if err != nil {
			return err
		}

		if opts.Role != nil && *opts.Role != user.Role {
			if !models.IsValidRole(*opts.Role) {
				return errcodes.ValidationError(`"role" must be one of the following: "admin", "user"`)
			}
			if user.ID == actor.ID {
				return errcodes.ValidationError("You cannot change your own role")
			}
			user.Role = *opts.Role
			columns = append(columns, "role")
		}
		if opts.IsActive != nil && *opts.IsActive != user.IsActive {
			if user.ID == actor.ID {
				return errcodes.ValidationError("You cannot deactivate your own account")
			}
			user.IsActive = *opts.IsActive
			columns = append(columns, "is_active")
		}
		if opts.FullName != nil {
			fullName := trimmedOrNil(opts.FullName)
			if !equalStrPtr(fullName, user.FullName) {
				user.FullName = fullName
				columns = append(columns, "full_name")
			}
		}

		if len(columns) == 0 {
			return nil
		}

		user.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(user).
			Column(append(columns, "updated_at")...).
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	if len(columns) > 0 {
		logger.FromContext(ctx).Info("user updated", logger.Data{"user_id": user.ID, "actor_id": actor.ID, "columns": columns})
	}
	return user, nil
}

// CountUsers returns the total number of users.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

func (s *Service) find(ctx context.Context, db bun.IDB, id int) (*models.User, error) {
	user := &models.User{}
	err := db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound(resourceName)
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
