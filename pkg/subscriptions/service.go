package subscriptions

import (
	"context"
	"database/sql"
	"time"

	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/database"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

const (
	MinDurationMonths = 1
	MaxDurationMonths = 36

	resourceName = "Subscription"
)

type Service struct {
	db         *bun.DB
	maxRetries int
}

func NewService(db *bun.DB, maxRetries int) *Service {
	return &Service{db: db, maxRetries: maxRetries}
}

type CreateOptions struct {
	PublicationID  int
	DurationMonths int
	AutoRenew      bool
}

// Create subscribes actor to an active publication starting now.
func (svc *Service) Create(ctx context.Context, actor *models.User, opts CreateOptions) (*models.Subscription, error) {
	if err := auth.Authorize(actor, auth.ActionCreateSubscription); err != nil {
		return nil, err
	}
	if opts.DurationMonths < MinDurationMonths || opts.DurationMonths > MaxDurationMonths {
		return nil, errcodes.ValidationError(`"duration_months" must be between 1 and 36`)
	}

	var sub *models.Subscription
	err := database.RunInTx(ctx, svc.db, svc.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		pub := &models.Publication{}
		err := tx.NewSelect().
			Model(pub).
			Where("pub.id = ?", opts.PublicationID).
			Where("pub.state = ?", models.PublicationStateActive).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Publication")
			}
			return errors.WithStack(err)
		}

		now := time.Now().UTC()
		sub = &models.Subscription{
			CreatedAt:     now,
			UpdatedAt:     now,
			UserID:        actor.ID,
			PublicationID: pub.ID,
			StartDate:     now,
			EndDate:       now.AddDate(0, opts.DurationMonths, 0),
			Status:        models.SubscriptionStatusActive,
			Price:         Price(opts.DurationMonths, pub.PriceMonthly, pub.PriceYearly),
			AutoRenew:     opts.AutoRenew,
		}
		_, err = tx.NewInsert().
			Model(sub).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		sub.Publication = pub
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("subscription created", logger.Data{
		"subscription_id": sub.ID,
		"user_id":         actor.ID,
		"publication_id":  sub.PublicationID,
		"price":           sub.Price,
	})
	return sub, nil
}

// ListMine returns the actor's own subscriptions, oldest first.
func (svc *Service) ListMine(ctx context.Context, actor *models.User) ([]*models.Subscription, error) {
	if actor == nil {
		return nil, errcodes.Unauthorized("Not authenticated")
	}
	return svc.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("sub.user_id = ?", actor.ID)
	})
}

// ListAll returns every subscription.
func (svc *Service) ListAll(ctx context.Context, actor *models.User) ([]*models.Subscription, error) {
	if err := auth.Authorize(actor, auth.ActionListAllSubscriptions); err != nil {
		return nil, err
	}
	return svc.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
}

func (svc *Service) list(ctx context.Context, scope func(*bun.SelectQuery) *bun.SelectQuery) ([]*models.Subscription, error) {
	if _, err := svc.ExpireDue(ctx); err != nil {
		return nil, err
	}

	subs := []*models.Subscription{}
	q := svc.db.NewSelect().
		Model(&subs).
		Relation("Publication").
		Order("sub.created_at ASC", "sub.id ASC")
	if err := scope(q).Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return subs, nil
}

// Cancel stops an active subscription. Subscriptions that belong to someone
// else are reported as not found unless the actor is an admin.
func (svc *Service) Cancel(ctx context.Context, actor *models.User, id int) (*models.Subscription, error) {
	if err := auth.Authorize(actor, auth.ActionCancelSubscription); err != nil {
		return nil, err
	}

	// The sweep commits on its own so a rejected cancel below can't roll the
	// expiry back.
	if _, err := svc.ExpireDue(ctx); err != nil {
		return nil, err
	}

	sub := &models.Subscription{}
	err := database.RunInTx(ctx, svc.db, svc.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()
		err := tx.NewSelect().
			Model(sub).
			Relation("Publication").
			Where("sub.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound(resourceName)
			}
			return errors.WithStack(err)
		}
		if sub.UserID != actor.ID && !actor.IsAdmin() {
			return errcodes.NotFound(resourceName)
		}
		// A row that lapsed after the sweep is still active on disk but is
		// treated as expired.
		if sub.Status != models.SubscriptionStatusActive || sub.EndDate.Before(now) {
			return errcodes.ValidationError("Only active subscriptions can be cancelled")
		}

		sub.Status = models.SubscriptionStatusCancelled
		sub.AutoRenew = false
		sub.UpdatedAt = now
		_, err = tx.NewUpdate().
			Model(sub).
			Column("status", "auto_renew", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("subscription cancelled", logger.Data{"subscription_id": sub.ID, "actor_id": actor.ID})
	return sub, nil
}

// ExpireDue marks every active subscription whose end date has passed as
// expired and returns how many rows changed.
func (svc *Service) ExpireDue(ctx context.Context) (int64, error) {
	var n int64
	err := database.RunInTx(ctx, svc.db, svc.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		var err error
		n, err = expireDue(ctx, tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.FromContext(ctx).Info("subscriptions expired", logger.Data{"count": n})
	}
	return n, nil
}

func expireDue(ctx context.Context, db bun.IDB) (int64, error) {
	now := time.Now().UTC()
	res, err := db.NewUpdate().
		Model((*models.Subscription)(nil)).
		Set("status = ?", models.SubscriptionStatusExpired).
		Set("updated_at = ?", now).
		Where("status = ?", models.SubscriptionStatusActive).
		Where("end_date < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	return n, errors.WithStack(err)
}
