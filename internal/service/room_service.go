package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/security"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
)

// RoomService manages rooms. Reads are open to any authenticated caller.
type RoomService struct {
	repo   domain.RoomRepository
	policy *security.Policy
	audit  *audit.Logger
	logger *slog.Logger
}

func NewRoomService(repo domain.RoomRepository, policy *security.Policy, auditLogger *audit.Logger, logger *slog.Logger) *RoomService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(logger)
	}
	return &RoomService{repo: repo, policy: policy, audit: auditLogger, logger: logger}
}

func (s *RoomService) List(ctx context.Context, caller *domain.Identity) ([]*domain.Room, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceRoom, security.ActionList, nil); err != nil {
		return nil, err
	}
	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (s *RoomService) Get(ctx context.Context, caller *domain.Identity, id int64) (*domain.Room, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceRoom, security.ActionRetrieve, nil); err != nil {
		return nil, err
	}
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, MsgRoomNotFound)
	}
	return room, nil
}

func (s *RoomService) Create(ctx context.Context, caller *domain.Identity, in RoomFields) (*domain.Room, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceRoom, security.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := in.check(true); err != nil {
		return nil, err
	}
	room := &domain.Room{}
	in.applyTo(room)
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	s.audit.LogMutation(ctx, caller, "create", string(security.ResourceRoom), room.ID, room.Name)
	return room, nil
}

func (s *RoomService) Update(ctx context.Context, caller *domain.Identity, id int64, in RoomFields, partial bool) (*domain.Room, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceRoom, security.ActionUpdate, nil); err != nil {
		return nil, err
	}
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, MsgRoomNotFound)
	}
	if err := in.check(!partial); err != nil {
		return nil, err
	}
	in.applyTo(room)
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, lookupError(err, MsgRoomNotFound)
	}
	s.audit.LogMutation(ctx, caller, "update", string(security.ResourceRoom), room.ID, room.Name)
	return room, nil
}

// Delete removes the room with its reservations and returns the room name.
func (s *RoomService) Delete(ctx context.Context, caller *domain.Identity, id int64) (string, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceRoom, security.ActionDelete, nil); err != nil {
		return "", err
	}
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", lookupError(err, MsgRoomNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return "", lookupError(err, MsgRoomNotFound)
	}
	s.audit.LogMutation(ctx, caller, "delete", string(security.ResourceRoom), id, room.Name)
	s.logger.Info("room deleted", slog.Int64("room_id", id), slog.String("nome", room.Name))
	return room.Name, nil
}
