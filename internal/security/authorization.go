package security

import (
	"context"
	"log/slog"
	"slices"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/observability/metrics"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
)

// Resource identifies the kind of resource being accessed
type Resource string

const (
	ResourceUser            Resource = "user"
	ResourceRoom            Resource = "room"
	ResourceSubject         Resource = "subject"
	ResourceReservation     Resource = "reservation"
	ResourceOwnSubjects     Resource = "own_subjects"
	ResourceOwnReservations Resource = "own_reservations"
)

// Action identifies what operation is being performed
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

const (
	MsgManagersOnly = "Apenas gestores têm permissão para realizar esta ação."
	MsgTeachersOnly = "Apenas professores têm permissão para realizar esta ação."
	MsgNotOwner     = "Você não tem permissão para realizar esta ação."
)

var (
	readActions = []Action{ActionList, ActionRetrieve}
	allActions  = []Action{ActionList, ActionRetrieve, ActionCreate, ActionUpdate, ActionDelete}
)

// RolePermissions maps roles to the actions they may perform per resource
var RolePermissions = map[domain.Role]map[Resource][]Action{
	domain.RoleManager: {
		ResourceUser:        allActions,
		ResourceRoom:        allActions,
		ResourceSubject:     allActions,
		ResourceReservation: allActions,
	},
	domain.RoleTeacher: {
		ResourceRoom:            readActions,
		ResourceSubject:         readActions,
		ResourceReservation:     {ActionList, ActionRetrieve, ActionUpdate, ActionDelete},
		ResourceOwnSubjects:     {ActionList},
		ResourceOwnReservations: {ActionList},
	},
}

// ownerScoped lists grants that only hold on targets the caller owns.
var ownerScoped = map[domain.Role]map[Resource][]Action{
	domain.RoleTeacher: {
		ResourceReservation: {ActionUpdate, ActionDelete},
	},
}

// Owned is implemented by targets subject to ownership checks.
type Owned interface {
	OwnerID() (int64, bool)
}

// Decide is the pure authorization rule. target may be nil for type-level
// checks made before the object is loaded; owner-scoped grants then pass and
// are re-checked once the target is known.
func Decide(caller *domain.Identity, resource Resource, action Action, target Owned) error {
	if caller == nil {
		return domain.ErrUnauthenticated
	}

	if !HasPermission(caller.Role, resource, action) {
		return &domain.ForbiddenError{Message: denyMessage(resource, action)}
	}

	if target != nil && slices.Contains(ownerScoped[caller.Role][resource], action) {
		owner, ok := target.OwnerID()
		if !ok || owner != caller.UserID {
			return &domain.ForbiddenError{Message: MsgNotOwner}
		}
	}
	return nil
}

// HasPermission checks if a role is granted action on resource, ignoring ownership
func HasPermission(role domain.Role, resource Resource, action Action) bool {
	return slices.Contains(RolePermissions[role][resource], action)
}

// denyMessage names the role that would have been allowed.
func denyMessage(resource Resource, action Action) string {
	if HasPermission(domain.RoleTeacher, resource, action) && !HasPermission(domain.RoleManager, resource, action) {
		return MsgTeachersOnly
	}
	return MsgManagersOnly
}

// Policy applies Decide and audit-logs denials
type Policy struct {
	logger *slog.Logger
	audit  *audit.Logger
}

// NewPolicy creates a new authorization policy
func NewPolicy(logger *slog.Logger, auditLogger *audit.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(logger)
	}
	return &Policy{logger: logger, audit: auditLogger}
}

// Authorize returns nil when caller may perform action on resource (and on
// target, when given).
func (p *Policy) Authorize(ctx context.Context, caller *domain.Identity, resource Resource, action Action, target Owned) error {
	err := Decide(caller, resource, action, target)
	if err != nil {
		p.logger.Warn("permission denied",
			slog.String("resource", string(resource)),
			slog.String("action", string(action)),
			slog.Bool("anonymous", caller == nil),
		)
		metrics.ObserveDenial(string(resource), string(action))
		p.audit.LogDenied(ctx, caller, string(action), string(resource), err.Error())
	}
	return err
}
