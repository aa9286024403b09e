package service

import (
	"context"
	"errors"
	"time"

	"docgen-selection-be/internal/dto"
	"docgen-selection-be/internal/entity"
	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/internal/repository/specification"
	"docgen-selection-be/internal/repository/unitofwork"
	"docgen-selection-be/pkg/restore"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var ErrFavoriteForbidden = errors.New("favorite belongs to another user")

const defaultFavoritePageSize = 50

type IFavoriteService interface {
	List(ctx context.Context, userId uuid.UUID, query *dto.ListFavoritesQuery) ([]*dto.FavoriteSummaryResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.FavoriteResponse, error)
	Save(ctx context.Context, userId uuid.UUID, req *dto.SaveFavoriteRequest) (*dto.FavoriteResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	// LoadRecord returns a favorite the user may apply: their own or a shared one.
	LoadRecord(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*restore.FavoriteRecord, error)
}

type favoriteService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	loads      singleflight.Group
}

func NewFavoriteService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IFavoriteService {
	return &favoriteService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *favoriteService) List(ctx context.Context, userId uuid.UUID, query *dto.ListFavoritesQuery) ([]*dto.FavoriteSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var owner specification.Specification = specification.VisibleTo{UserID: userId}
	if query.Mine {
		owner = specification.OwnedBy{OwnerID: userId}
	}
	specs := []specification.Specification{
		owner,
		specification.ByDocType{DocType: query.DocType},
	}
	if query.SectionIndex != nil {
		specs = append(specs, specification.ForSection{DocType: query.DocType, SectionIndex: *query.SectionIndex})
	}

	limit := query.Limit
	if limit == 0 {
		limit = defaultFavoritePageSize
	}
	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: query.Offset},
	)

	favorites, err := uow.FavoriteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.FavoriteSummaryResponse, 0, len(favorites))
	for _, f := range favorites {
		result = append(result, &dto.FavoriteSummaryResponse{
			Id:           f.Id,
			Name:         f.Name,
			SectionIndex: f.SectionIndex,
			IsShared:     f.IsShared,
			IsOwner:      f.OwnerId == userId,
			CreatedAt:    f.CreatedAt,
		})
	}
	return result, nil
}

func (s *favoriteService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.FavoriteResponse, error) {
	favorite, err := s.findVisible(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return toFavoriteResponse(favorite, userId), nil
}

func (s *favoriteService) Save(ctx context.Context, userId uuid.UUID, req *dto.SaveFavoriteRequest) (*dto.FavoriteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	favorite := entity.Favorite{
		Id:           uuid.New(),
		OwnerId:      userId,
		Name:         req.Name,
		DocType:      req.DocType,
		SectionIndex: req.SectionIndex,
		IsShared:     req.IsShared,
		DataToSave:   req.DataToSave,
		CreatedAt:    time.Now(),
	}
	if err := uow.FavoriteRepository().Create(ctx, &favorite); err != nil {
		return nil, err
	}

	s.logger.Info("FAVORITE", "Favorite saved", map[string]interface{}{
		"favorite_id":   favorite.Id,
		"owner_id":      userId,
		"doc_type":      favorite.DocType,
		"section_index": favorite.SectionIndex,
		"is_shared":     favorite.IsShared,
	})
	return toFavoriteResponse(&favorite, userId), nil
}

func (s *favoriteService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	favorite, err := uow.FavoriteRepository().FindOne(ctx, specification.ByID{ID: id}, specification.ForUpdate{})
	if err != nil {
		return err
	}
	if favorite == nil {
		return restore.ErrFavoriteNotFound
	}
	if favorite.OwnerId != userId {
		return ErrFavoriteForbidden
	}

	if err := uow.FavoriteRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	s.logger.Info("FAVORITE", "Favorite deleted", map[string]interface{}{"favorite_id": id, "owner_id": userId})
	return nil
}

func (s *favoriteService) LoadRecord(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*restore.FavoriteRecord, error) {
	key := userId.String() + ":" + id.String()
	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		favorite, err := s.findVisible(context.WithoutCancel(ctx), userId, id)
		if err != nil {
			return nil, err
		}
		return favorite.Record(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*restore.FavoriteRecord), nil
}

func (s *favoriteService) findVisible(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*entity.Favorite, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	favorite, err := uow.FavoriteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.VisibleTo{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if favorite == nil {
		return nil, restore.ErrFavoriteNotFound
	}
	return favorite, nil
}

func toFavoriteResponse(f *entity.Favorite, userId uuid.UUID) *dto.FavoriteResponse {
	return &dto.FavoriteResponse{
		Id:           f.Id,
		Name:         f.Name,
		DocType:      f.DocType,
		SectionIndex: f.SectionIndex,
		IsShared:     f.IsShared,
		IsOwner:      f.OwnerId == userId,
		DataToSave:   f.DataToSave,
		CreatedAt:    f.CreatedAt,
	}
}

// favoriteLoader binds a user to the service so a tab's gateway only sees
// favorites that user may apply.
type favoriteLoader struct {
	service IFavoriteService
	userId  uuid.UUID
}

func NewFavoriteLoader(service IFavoriteService, userId uuid.UUID) restore.FavoriteLoader {
	return favoriteLoader{service: service, userId: userId}
}

func (l favoriteLoader) LoadFavorite(ctx context.Context, id uuid.UUID) (*restore.FavoriteRecord, error) {
	return l.service.LoadRecord(ctx, l.userId, id)
}
