package gatherings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	dbpkg "github.com/julianvossen/gatherly-backend/pkg/db"
	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
	pkgerrors "github.com/julianvossen/gatherly-backend/pkg/errors"
	"github.com/julianvossen/gatherly-backend/pkg/logger"
	"github.com/julianvossen/gatherly-backend/pkg/outbox"
	"github.com/julianvossen/gatherly-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service orchestrates the gathering membership lifecycle. Every operation
// runs inside one transaction; admission rules are evaluated by the pure
// validators against snapshots read in that same transaction.
type Service interface {
	Create(ctx context.Context, input CreateGatheringInput) (*GatheringDTO, error)
	Get(ctx context.Context, gatheringID uuid.UUID) (*GatheringDTO, error)
	Join(ctx context.Context, gatheringID, userID uuid.UUID) (*MembershipDTO, error)
	Approve(ctx context.Context, gatheringID, userID, actorID uuid.UUID) (*MembershipDTO, error)
	Reject(ctx context.Context, gatheringID, userID, actorID uuid.UUID) (*MembershipDTO, error)
	CancelByMember(ctx context.Context, gatheringID, userID uuid.UUID) error
	Leave(ctx context.Context, gatheringID, userID uuid.UUID) error
	Update(ctx context.Context, gatheringID, actorID uuid.UUID, input UpdateGatheringInput) (*GatheringDTO, error)
	Delete(ctx context.Context, gatheringID, actorID uuid.UUID) error
	Cancel(ctx context.Context, gatheringID, actorID uuid.UUID) error
	ExpireDue(ctx context.Context, asOf time.Time) (int, error)
}

type service struct {
	repo   Repository
	users  userFinder
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// ServiceParams bundles the dependencies for the lifecycle service.
type ServiceParams struct {
	Repo   Repository
	Users  userFinder
	Tx     txRunner
	Outbox outboxPublisher
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService builds a gathering lifecycle service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("gatherings repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		users:  params.Users,
		tx:     params.Tx,
		outbox: params.Outbox,
		logg:   params.Logger,
		now:    now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateGatheringInput) (*GatheringDTO, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.MinUsers < 2 || input.MaxUsers < input.MinUsers {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity bounds must satisfy 2 <= min <= max")
	}
	if input.FeeCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee cannot be negative")
	}
	if !s.now().Before(input.GatheringDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gathering date must be in the future")
	}
	if input.OrganizerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	if _, err := s.users.FindByID(ctx, input.OrganizerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organizer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organizer")
	}

	var dto *GatheringDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering := &models.Gathering{
			Title:         strings.TrimSpace(input.Title),
			Description:   input.Description,
			GatheringDate: input.GatheringDate,
			MinUsers:      input.MinUsers,
			MaxUsers:      input.MaxUsers,
			FeeCents:      input.FeeCents,
			OrganizerID:   input.OrganizerID,
			Status:        enums.GatheringStatusRecruiting,
			Latitude:      input.Latitude,
			Longitude:     input.Longitude,
			Address:       input.Address,
			PlaceName:     input.PlaceName,
		}
		if _, err := repo.CreateGathering(ctx, gathering); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gathering")
		}

		// The organizer's membership is born approved in the same transaction.
		organizerMembership := &models.Membership{
			GatheringID: gathering.ID,
			UserID:      input.OrganizerID,
			Role:        enums.MemberRoleOrganizer,
			Status:      enums.MembershipStatusApproved,
		}
		if _, err := repo.CreateMembership(ctx, organizerMembership); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create organizer membership")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventGatheringCreated,
			AggregateType: enums.AggregateGathering,
			AggregateID:   gathering.ID,
			Version:       1,
			Actor:         buildActor(input.OrganizerID, enums.MemberRoleOrganizer),
			Data: payloads.GatheringCreatedEvent{
				GatheringID:   gathering.ID,
				OrganizerID:   gathering.OrganizerID,
				Title:         gathering.Title,
				GatheringDate: gathering.GatheringDate,
				MinUsers:      gathering.MinUsers,
				MaxUsers:      gathering.MaxUsers,
				FeeCents:      gathering.FeeCents,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		dto = FromGatheringModel(gathering, 1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Get(ctx context.Context, gatheringID uuid.UUID) (*GatheringDTO, error) {
	gathering, err := s.repo.FindGathering(ctx, gatheringID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gathering not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gathering")
	}
	approved, err := s.repo.CountApproved(ctx, gatheringID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved members")
	}
	return FromGatheringModel(gathering, int(approved)), nil
}

func (s *service) Join(ctx context.Context, gatheringID, userID uuid.UUID) (*MembershipDTO, error) {
	if gatheringID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gathering id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var dto *MembershipDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering, err := s.loadGathering(ctx, repo, gatheringID)
		if err != nil {
			return err
		}

		// Any prior row for the pair, terminal included, blocks a new join.
		if _, err := repo.FindMembership(ctx, gatheringID, userID); err == nil {
			return violation(ReasonDuplicateMembership, "membership already exists for this gathering")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing membership")
		}

		approved, err := repo.CountApproved(ctx, gatheringID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved members")
		}
		if err := ValidateJoin(gathering, approved, s.now()); err != nil {
			return err
		}

		membership := &models.Membership{
			GatheringID: gatheringID,
			UserID:      userID,
			Role:        enums.MemberRoleParticipant,
			Status:      enums.MembershipStatusPending,
		}
		if _, err := repo.CreateMembership(ctx, membership); err != nil {
			// The unique index closes the insert race the existence check
			// above cannot.
			if dbpkg.IsUniqueViolation(err, "ux_memberships_gathering_user") {
				return violation(ReasonDuplicateMembership, "membership already exists for this gathering")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventMembershipRequested,
			AggregateType: enums.AggregateMembership,
			AggregateID:   membership.ID,
			Version:       1,
			Actor:         buildActor(userID, enums.MemberRoleParticipant),
			Data: payloads.MembershipRequestedEvent{
				MembershipID: membership.ID,
				GatheringID:  gathering.ID,
				UserID:       userID,
				OrganizerID:  gathering.OrganizerID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		dto = FromMembershipModel(membership)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Approve(ctx context.Context, gatheringID, userID, actorID uuid.UUID) (*MembershipDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var dto *MembershipDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering, err := s.loadGathering(ctx, repo, gatheringID)
		if err != nil {
			return err
		}
		if gathering.OrganizerID != actorID {
			return violation(ReasonNotOrganizer, "only the organizer can approve members")
		}

		membership, err := s.loadMembership(ctx, repo, gatheringID, userID)
		if err != nil {
			return err
		}

		approved, err := repo.CountApproved(ctx, gatheringID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved members")
		}
		if err := ValidateApprove(gathering, membership, approved); err != nil {
			return err
		}

		rows, err := repo.ApproveWithinCapacity(ctx, membership.ID, gatheringID, gathering.MaxUsers)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve membership")
		}
		if rows == 0 {
			return s.classifyApprovalMiss(ctx, repo, gathering, membership.ID)
		}
		membership.Status = enums.MembershipStatusApproved

		event := outbox.DomainEvent{
			EventType:     enums.EventMembershipApproved,
			AggregateType: enums.AggregateMembership,
			AggregateID:   membership.ID,
			Version:       1,
			Actor:         buildActor(actorID, enums.MemberRoleOrganizer),
			Data: payloads.MembershipDecisionEvent{
				MembershipID: membership.ID,
				GatheringID:  gathering.ID,
				UserID:       membership.UserID,
				OrganizerID:  gathering.OrganizerID,
				Status:       enums.MembershipStatusApproved,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		dto = FromMembershipModel(membership)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// classifyApprovalMiss distinguishes why the conditional update wrote nothing:
// the membership left pending, the gathering filled up, or a race we cannot
// otherwise explain.
func (s *service) classifyApprovalMiss(ctx context.Context, repo Repository, gathering *models.Gathering, membershipID uuid.UUID) error {
	memberships, err := repo.ListMemberships(ctx, gathering.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload memberships")
	}
	var approved int64
	var target *models.Membership
	for i := range memberships {
		if memberships[i].Status == enums.MembershipStatusApproved {
			approved++
		}
		if memberships[i].ID == membershipID {
			target = &memberships[i]
		}
	}
	if target != nil && target.Status == enums.MembershipStatusApproved {
		return violation(ReasonAlreadyApproved, "membership already approved")
	}
	if target != nil && target.Status.IsTerminal() {
		return violation(ReasonMembershipClosed, "membership is no longer pending")
	}
	if approved >= int64(gathering.MaxUsers) {
		return violation(ReasonCapacityFull, "gathering is full")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "approval lost a concurrent update")
}

func (s *service) Reject(ctx context.Context, gatheringID, userID, actorID uuid.UUID) (*MembershipDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var dto *MembershipDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering, err := s.loadGathering(ctx, repo, gatheringID)
		if err != nil {
			return err
		}
		if gathering.OrganizerID != actorID {
			return violation(ReasonNotOrganizer, "only the organizer can reject members")
		}

		membership, err := s.loadMembership(ctx, repo, gatheringID, userID)
		if err != nil {
			return err
		}
		if err := ValidateReject(membership); err != nil {
			return err
		}

		if err := repo.UpdateMembershipStatus(ctx, membership.ID, enums.MembershipStatusRejected); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject membership")
		}
		membership.Status = enums.MembershipStatusRejected

		event := outbox.DomainEvent{
			EventType:     enums.EventMembershipRejected,
			AggregateType: enums.AggregateMembership,
			AggregateID:   membership.ID,
			Version:       1,
			Actor:         buildActor(actorID, enums.MemberRoleOrganizer),
			Data: payloads.MembershipDecisionEvent{
				MembershipID: membership.ID,
				GatheringID:  gathering.ID,
				UserID:       membership.UserID,
				OrganizerID:  gathering.OrganizerID,
				Status:       enums.MembershipStatusRejected,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		dto = FromMembershipModel(membership)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) CancelByMember(ctx context.Context, gatheringID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering, err := s.loadGathering(ctx, repo, gatheringID)
		if err != nil {
			return err
		}
		membership, err := s.loadMembership(ctx, repo, gatheringID, userID)
		if err != nil {
			return err
		}
		if err := ValidateCancel(membership); err != nil {
			return err
		}

		if err := repo.UpdateMembershipStatus(ctx, membership.ID, enums.MembershipStatusCanceled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel membership")
		}

		return s.emitMembershipCanceled(ctx, tx, gathering, membership, false, buildActor(userID, enums.MemberRoleParticipant))
	})
}

func (s *service) Leave(ctx context.Context, gatheringID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering, err := s.loadGathering(ctx, repo, gatheringID)
		if err != nil {
			return err
		}
		membership, err := s.loadMembership(ctx, repo, gatheringID, userID)
		if err != nil {
			return err
		}
		if err := ValidateLeave(gathering, membership, s.now()); err != nil {
			return err
		}

		if err := repo.UpdateMembershipStatus(ctx, membership.ID, enums.MembershipStatusCanceled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel membership")
		}

		return s.emitMembershipCanceled(ctx, tx, gathering, membership, true, buildActor(userID, enums.MemberRoleParticipant))
	})
}

func (s *service) Update(ctx context.Context, gatheringID, actorID uuid.UUID, input UpdateGatheringInput) (*GatheringDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var dto *GatheringDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering, err := s.loadGathering(ctx, repo, gatheringID)
		if err != nil {
			return err
		}

		newMin := gathering.MinUsers
		if input.MinUsers != nil {
			newMin = *input.MinUsers
		}
		newMax := gathering.MaxUsers
		if input.MaxUsers != nil {
			newMax = *input.MaxUsers
		}

		approved, err := repo.CountApproved(ctx, gatheringID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved members")
		}
		if err := ValidateUpdate(gathering, actorID, newMin, newMax, approved, s.now()); err != nil {
			return err
		}
		if input.GatheringDate != nil && !s.now().Before(*input.GatheringDate) {
			return pkgerrors.New(pkgerrors.CodeValidation, "gathering date must be in the future")
		}
		if input.FeeCents != nil && *input.FeeCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "fee cannot be negative")
		}

		updates := map[string]any{"min_users": newMin, "max_users": newMax}
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
			}
			updates["title"] = title
			gathering.Title = title
		}
		if input.Description != nil {
			updates["description"] = *input.Description
			gathering.Description = input.Description
		}
		if input.GatheringDate != nil {
			updates["gathering_date"] = *input.GatheringDate
			gathering.GatheringDate = *input.GatheringDate
		}
		if input.FeeCents != nil {
			updates["fee_cents"] = *input.FeeCents
			gathering.FeeCents = *input.FeeCents
		}
		if input.Latitude != nil {
			updates["latitude"] = *input.Latitude
			gathering.Latitude = input.Latitude
		}
		if input.Longitude != nil {
			updates["longitude"] = *input.Longitude
			gathering.Longitude = input.Longitude
		}
		if input.Address != nil {
			updates["address"] = *input.Address
			gathering.Address = input.Address
		}
		if input.PlaceName != nil {
			updates["place_name"] = *input.PlaceName
			gathering.PlaceName = input.PlaceName
		}
		gathering.MinUsers = newMin
		gathering.MaxUsers = newMax

		if err := repo.UpdateGathering(ctx, gatheringID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update gathering")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventGatheringUpdated,
			AggregateType: enums.AggregateGathering,
			AggregateID:   gathering.ID,
			Version:       1,
			Actor:         buildActor(actorID, enums.MemberRoleOrganizer),
			Data: payloads.GatheringUpdatedEvent{
				GatheringID: gathering.ID,
				OrganizerID: gathering.OrganizerID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		dto = FromGatheringModel(gathering, int(approved))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Delete(ctx context.Context, gatheringID, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering, err := s.loadGathering(ctx, repo, gatheringID)
		if err != nil {
			return err
		}
		if err := ValidateDelete(gathering, actorID, s.now()); err != nil {
			return err
		}

		others, err := repo.CountNonOrganizerMemberships(ctx, gatheringID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count memberships")
		}

		// With only the organizer enrolled the row disappears entirely.
		if others == 0 {
			if err := repo.HardDeleteGathering(ctx, gatheringID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete gathering")
			}
			return s.emitGatheringDeleted(ctx, tx, gathering, actorID)
		}

		affected, err := repo.ListActiveNonOrganizerMemberships(ctx, gatheringID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active memberships")
		}
		rows, err := repo.UpdateGatheringStatusIf(ctx, gatheringID, enums.GatheringStatusRecruiting, enums.GatheringStatusDeleted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark gathering deleted")
		}
		if rows == 0 {
			return violation(ReasonGatheringClosed, "gathering is no longer recruiting")
		}
		if _, err := repo.CancelActiveNonOrganizerMemberships(ctx, gatheringID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel memberships")
		}

		actor := buildActor(actorID, enums.MemberRoleOrganizer)
		for i := range affected {
			wasApproved := affected[i].Status == enums.MembershipStatusApproved
			if err := s.emitMembershipCanceled(ctx, tx, gathering, &affected[i], wasApproved, actor); err != nil {
				return err
			}
		}
		return s.emitGatheringDeleted(ctx, tx, gathering, actorID)
	})
}

func (s *service) Cancel(ctx context.Context, gatheringID, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		gathering, err := s.loadGathering(ctx, repo, gatheringID)
		if err != nil {
			return err
		}
		if err := ValidateCancelGathering(gathering, actorID, s.now()); err != nil {
			return err
		}

		affected, err := repo.ListActiveNonOrganizerMemberships(ctx, gatheringID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active memberships")
		}
		rows, err := repo.UpdateGatheringStatusIf(ctx, gatheringID, enums.GatheringStatusRecruiting, enums.GatheringStatusCanceled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark gathering canceled")
		}
		if rows == 0 {
			return violation(ReasonGatheringClosed, "gathering is no longer recruiting")
		}
		if _, err := repo.CancelActiveNonOrganizerMemberships(ctx, gatheringID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel memberships")
		}

		actor := buildActor(actorID, enums.MemberRoleOrganizer)
		approvedIDs := make([]uuid.UUID, 0, len(affected))
		for i := range affected {
			wasApproved := affected[i].Status == enums.MembershipStatusApproved
			if wasApproved {
				approvedIDs = append(approvedIDs, affected[i].UserID)
			}
			if err := s.emitMembershipCanceled(ctx, tx, gathering, &affected[i], wasApproved, actor); err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventGatheringCanceled,
			AggregateType: enums.AggregateGathering,
			AggregateID:   gathering.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.GatheringCanceledEvent{
				GatheringID:     gathering.ID,
				OrganizerID:     gathering.OrganizerID,
				Title:           gathering.Title,
				FeeCents:        gathering.FeeCents,
				ApprovedUserIDs: approvedIDs,
				CanceledAt:      s.now().UTC(),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// ExpireDue retires every recruiting gathering whose date is before asOf.
// Each gathering gets its own transaction so a failure on one row never
// blocks the rest; errors are aggregated and returned alongside the count.
func (s *service) ExpireDue(ctx context.Context, asOf time.Time) (int, error) {
	due, err := s.repo.FindDueGatherings(ctx, asOf)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due gatherings")
	}

	expired := 0
	var errs error
	for i := range due {
		gathering := due[i]
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			affected, err := repo.ListActiveNonOrganizerMemberships(ctx, gathering.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active memberships")
			}

			approved, err := repo.CountApproved(ctx, gathering.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved members")
			}

			rows, err := repo.UpdateGatheringStatusIf(ctx, gathering.ID, enums.GatheringStatusRecruiting, enums.GatheringStatusExpired)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark gathering expired")
			}
			if rows == 0 {
				// Another writer reached a terminal state first; the sweeper
				// treats that as a silent skip.
				return nil
			}
			if _, err := repo.CancelActiveNonOrganizerMemberships(ctx, gathering.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel memberships")
			}

			approvedIDs := make([]uuid.UUID, 0, len(affected))
			for j := range affected {
				wasApproved := affected[j].Status == enums.MembershipStatusApproved
				if wasApproved {
					approvedIDs = append(approvedIDs, affected[j].UserID)
				}
				if err := s.emitMembershipCanceled(ctx, tx, &gathering, &affected[j], wasApproved, nil); err != nil {
					return err
				}
			}

			event := outbox.DomainEvent{
				EventType:     enums.EventGatheringExpired,
				AggregateType: enums.AggregateGathering,
				AggregateID:   gathering.ID,
				Version:       1,
				Data: payloads.GatheringExpiredEvent{
					GatheringID:     gathering.ID,
					OrganizerID:     gathering.OrganizerID,
					Title:           gathering.Title,
					FeeCents:        gathering.FeeCents,
					ApprovedUserIDs: approvedIDs,
					GatheringDate:   gathering.GatheringDate,
					ExpiredAt:       s.now().UTC(),
					BelowMinimum:    approved < int64(gathering.MinUsers),
				},
			}
			if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
				return err
			}

			expired++
			return nil
		})
		if err != nil {
			if s.logg != nil {
				logCtx := s.logg.WithGatheringID(ctx, gathering.ID.String())
				s.logg.Error(logCtx, "expire gathering failed", err)
			}
			errs = multierr.Append(errs, fmt.Errorf("expire gathering %s: %w", gathering.ID, err))
		}
	}
	return expired, errs
}

func (s *service) loadGathering(ctx context.Context, repo Repository, gatheringID uuid.UUID) (*models.Gathering, error) {
	gathering, err := repo.FindGathering(ctx, gatheringID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gathering not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gathering")
	}
	return gathering, nil
}

func (s *service) loadMembership(ctx context.Context, repo Repository, gatheringID, userID uuid.UUID) (*models.Membership, error) {
	membership, err := repo.FindMembership(ctx, gatheringID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}
	return membership, nil
}

func (s *service) emitMembershipCanceled(ctx context.Context, tx *gorm.DB, gathering *models.Gathering, membership *models.Membership, wasApproved bool, actor *outbox.ActorRef) error {
	// The refund notice downstream needs the member's nickname and refund
	// account, so the event carries them instead of just the user id.
	user, err := s.users.FindByID(ctx, membership.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member for cancellation event")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventMembershipCanceled,
		AggregateType: enums.AggregateMembership,
		AggregateID:   membership.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.MembershipCanceledEvent{
			MembershipID:  membership.ID,
			GatheringID:   gathering.ID,
			UserID:        membership.UserID,
			Nickname:      user.Nickname,
			RefundAccount: user.RefundAccount,
			Title:         gathering.Title,
			FeeCents:      gathering.FeeCents,
			WasApproved:   wasApproved,
			CanceledAt:    s.now().UTC(),
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func (s *service) emitGatheringDeleted(ctx context.Context, tx *gorm.DB, gathering *models.Gathering, actorID uuid.UUID) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventGatheringDeleted,
		AggregateType: enums.AggregateGathering,
		AggregateID:   gathering.ID,
		Version:       1,
		Actor:         buildActor(actorID, enums.MemberRoleOrganizer),
		Data: payloads.GatheringDeletedEvent{
			GatheringID: gathering.ID,
			OrganizerID: gathering.OrganizerID,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func buildActor(userID uuid.UUID, role enums.MemberRole) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: userID,
		Role:   string(role),
	}
}
