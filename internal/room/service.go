package room

import "context"

type CreateRequest struct {
	Name          string
	Capacity      int
	HasProjector  bool
	HasWhiteboard bool
	HasVideoConf  bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Room, error)
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, filter Filter) ([]*Room, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Room, error) {
	if req.Name == "" {
		return nil, ErrEmptyName
	}
	if req.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	room := &Room{
		Name:          req.Name,
		Capacity:      req.Capacity,
		HasProjector:  req.HasProjector,
		HasWhiteboard: req.HasWhiteboard,
		HasVideoConf:  req.HasVideoConf,
	}

	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Room, int, error) {
	return s.repo.List(ctx, filter)
}
