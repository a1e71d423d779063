package publications

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/cache"
	"github.com/newsstandhq/newsstand/pkg/database"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/metrics"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100

	resourceName      = "Publication"
	listingVersionKey = "publications:public:version"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

type ListPublicOptions struct {
	Skip  int
	Limit int
	Type  *string
}

type ServiceOptions struct {
	// Cache holds public listings. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration
	// Metrics counts successful mutations. Nil disables counting.
	Metrics *metrics.Prom
	// MaxRetries bounds replays of transactions that hit SQLite lock
	// contention.
	MaxRetries int
}

type Service struct {
	db         *bun.DB
	cache      cache.Cache
	cacheTTL   time.Duration
	metrics    *metrics.Prom
	maxRetries int
}

func NewService(db *bun.DB, opts ServiceOptions) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	return &Service{
		db:         db,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		metrics:    opts.Metrics,
		maxRetries: opts.MaxRetries,
	}
}

// Create inserts a new active publication.
func (svc *Service) Create(ctx context.Context, actor *models.User, payload CreatePublicationPayload) (*models.Publication, error) {
	if err := auth.Authorize(actor, auth.ActionCreatePublication); err != nil {
		return nil, err
	}

	now := time.Now()
	pub := &models.Publication{
		CreatedAt:     now,
		UpdatedAt:     now,
		Title:         payload.Title,
		Description:   normalizeDescription(payload.Description),
		Type:          payload.Type,
		Publisher:     normalizeString(payload.Publisher),
		Frequency:     normalizeString(payload.Frequency),
		PriceMonthly:  payload.PriceMonthly,
		PriceYearly:   payload.PriceYearly,
		CoverImageURL: normalizeString(payload.CoverImageURL),
		State:         models.PublicationStateActive,
	}
	if pub.Title == "" {
		return nil, errcodes.ValidationError(`"title" is required`)
	}
	if !isValidType(pub.Type) {
		return nil, errcodes.ValidationError(`"type" must be one of the following: "magazine", "newspaper"`)
	}
	if pub.PriceMonthly <= 0 || pub.PriceYearly <= 0 {
		return nil, errcodes.ValidationError("prices must be greater than 0")
	}

	err := database.RunInTx(ctx, svc.db, svc.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(pub).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	svc.mutated(ctx, opCreate)
	logger.FromContext(ctx).Info("publication created", logger.Data{"publication_id": pub.ID, "actor_id": actor.ID})
	return pub, nil
}

// ListPublic returns active publications, oldest first.
func (svc *Service) ListPublic(ctx context.Context, opts ListPublicOptions) ([]*models.Publication, error) {
	if opts.Skip < 0 {
		return nil, errcodes.ValidationError(`"skip" must be greater than or equal to 0`)
	}
	if opts.Limit < 1 || opts.Limit > MaxLimit {
		return nil, errcodes.ValidationError(fmt.Sprintf(`"limit" must be between 1 and %d`, MaxLimit))
	}
	if opts.Type != nil && !isValidType(*opts.Type) {
		return nil, errcodes.ValidationError(`"type" must be one of the following: "magazine", "newspaper"`)
	}

	log := logger.FromContext(ctx)
	key, err := svc.listingKey(ctx, opts)
	if err != nil {
		log.Err(err).Warn("listing cache unavailable")
	}
	if key != "" {
		cached := []*models.Publication{}
		found, err := svc.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Err(err).Warn("listing cache read failed")
		} else if found {
			return cached, nil
		}
	}

	pubs := []*models.Publication{}
	q := svc.db.NewSelect().
		Model(&pubs).
		Where("pub.state = ?", models.PublicationStateActive).
		Order("pub.created_at ASC", "pub.id ASC").
		Offset(opts.Skip).
		Limit(opts.Limit)
	if opts.Type != nil {
		q = q.Where("pub.type = ?", *opts.Type)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	if key != "" {
		if err := svc.cache.Set(ctx, key, pubs, svc.cacheTTL); err != nil {
			log.Err(err).Warn("listing cache write failed")
		}
	}

	return pubs, nil
}

// ListAllForAdmin returns every publication that has not been deleted.
func (svc *Service) ListAllForAdmin(ctx context.Context, actor *models.User) ([]*models.Publication, error) {
	if err := auth.Authorize(actor, auth.ActionListAllPublications); err != nil {
		return nil, err
	}

	pubs := []*models.Publication{}
	err := svc.db.NewSelect().
		Model(&pubs).
		Where("pub.state != ?", models.PublicationStateDeleted).
		Order("pub.created_at ASC", "pub.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return pubs, nil
}

// Retrieve returns a publication the actor is allowed to see. Missing,
// deleted and hidden-from-the-actor rows are all reported as not found.
func (svc *Service) Retrieve(ctx context.Context, id int, actor *models.User) (*models.Publication, error) {
	pub, err := svc.find(ctx, svc.db, id, false)
	if err != nil {
		return nil, err
	}

	switch pub.State {
	case models.PublicationStateActive:
		return pub, nil
	case models.PublicationStateHidden:
		if auth.Can(actor, auth.ActionViewHiddenPublication) {
			return pub, nil
		}
	}
	return nil, errcodes.NotFound(resourceName)
}

// Update applies a partial update to a live publication.
func (svc *Service) Update(ctx context.Context, id int, actor *models.User, payload UpdatePublicationPayload) (*models.Publication, error) {
	if err := auth.Authorize(actor, auth.ActionUpdatePublication); err != nil {
		return nil, err
	}

	patch, err := normalizePatch(payload)
	if err != nil {
		return nil, err
	}

	var (
		pub     *models.Publication
		columns []string
	)
	err = database.RunInTx(ctx, svc.db, svc.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		var err error
		pub, err = svc.find(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if pub.State == models.PublicationStateDeleted {
			return errcodes.NotFound(resourceName)
		}

		columns, err = patch.apply(pub)
		if err != nil {
			return errors.WithStack(err)
		}
		if len(columns) == 0 {
			return nil
		}

		pub.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(pub).
			Column(append(columns, "updated_at")...).
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	if len(columns) > 0 {
		svc.mutated(ctx, opUpdate)
		logger.FromContext(ctx).Info("publication updated", logger.Data{"publication_id": pub.ID, "actor_id": actor.ID, "columns": columns})
	}
	return pub, nil
}

// SoftDelete moves a publication to the deleted state. Deleting an already
// deleted publication succeeds without changing anything.
func (svc *Service) SoftDelete(ctx context.Context, id int, actor *models.User) error {
	if err := auth.Authorize(actor, auth.ActionDeletePublication); err != nil {
		return err
	}

	changed := false
	err := database.RunInTx(ctx, svc.db, svc.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		pub, err := svc.find(ctx, tx, id, true)
		if err != nil {
			return err
		}

		next, err := pub.State.Transition(models.PublicationEventDelete)
		if err != nil {
			return errors.WithStack(err)
		}
		if next == pub.State {
			return nil
		}

		pub.State = next
		pub.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(pub).
			Column("state", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		svc.mutated(ctx, opDelete)
		logger.FromContext(ctx).Info("publication deleted", logger.Data{"publication_id": id, "actor_id": actor.ID})
	}
	return nil
}

// find loads a publication in any state. forUpdate locks the row on
// databases that support it.
func (svc *Service) find(ctx context.Context, db bun.IDB, id int, forUpdate bool) (*models.Publication, error) {
	pub := &models.Publication{}
	q := db.NewSelect().
		Model(pub).
		Where("pub.id = ?", id)
	if forUpdate && db.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound(resourceName)
		}
		return nil, errors.WithStack(err)
	}
	return pub, nil
}

// listingKey returns the cache key for a public listing under the current
// catalog version.
func (svc *Service) listingKey(ctx context.Context, opts ListPublicOptions) (string, error) {
	var version int64
	if _, err := svc.cache.Get(ctx, listingVersionKey, &version); err != nil {
		return "", err
	}
	typ := ""
	if opts.Type != nil {
		typ = *opts.Type
	}
	return fmt.Sprintf("publications:public:v%d:skip=%d:limit=%d:type=%s", version, opts.Skip, opts.Limit, typ), nil
}

// mutated invalidates cached listings and counts the mutation.
func (svc *Service) mutated(ctx context.Context, op string) {
	if _, err := svc.cache.Incr(ctx, listingVersionKey); err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to bump listing cache version")
	}
	svc.metrics.CatalogMutation(op)
}

func isValidType(t string) bool {
	return t == models.PublicationTypeMagazine || t == models.PublicationTypeNewspaper
}
