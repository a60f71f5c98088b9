// Package authz holds the access-control rules of the rating service.
//
// Decide is a pure function of (actor, action, resource): it performs no I/O.
// Callers resolve the target resource first and pass the attributes the rule
// needs (owner id, author id, existing rating, owned store count).
package authz

import (
	"errors"

	"github.com/ikkim/store-rating-backend/internal/app/model"
)

var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
)

// Action names an operation guarded by the engine.
type Action string

const (
	ActionRegister Action = "register"

	ActionViewProfile    Action = "profile.view"
	ActionChangePassword Action = "profile.change_password"
	ActionLogout         Action = "profile.logout"

	ActionListUsers     Action = "users.list"
	ActionViewUser      Action = "users.view"
	ActionCreateUser    Action = "users.create"
	ActionUpdateUser    Action = "users.update"
	ActionDeleteUser    Action = "users.delete"
	ActionViewUserStats Action = "users.stats"

	ActionListStores         Action = "stores.list"
	ActionViewStore          Action = "stores.view"
	ActionCreateStore        Action = "stores.create"
	ActionUpdateStore        Action = "stores.update"
	ActionDeleteStore        Action = "stores.delete"
	ActionAssignStoreOwner   Action = "stores.assign_owner"
	ActionViewOwnedStores    Action = "stores.owned"
	ActionViewStoreStats     Action = "stores.stats"
	ActionViewStoreStatsByID Action = "stores.stats_by_id"

	ActionListRatings       Action = "ratings.list"
	ActionViewStoreRatings  Action = "ratings.list_store"
	ActionWatchStoreRatings Action = "ratings.watch_store"
	ActionViewOwnRatings    Action = "ratings.list_own"
	ActionCreateRating      Action = "ratings.create"
	ActionUpdateRating      Action = "ratings.update"
	ActionDeleteRating      Action = "ratings.delete"
	ActionViewRatingStats   Action = "ratings.stats"

	ActionViewDashboard   Action = "dashboard.view"
	ActionExportDashboard Action = "dashboard.export"
)

// Actor is the caller of an operation. The zero value is anonymous.
type Actor struct {
	ID   uint
	Role model.Role
}

// Anonymous is the actor used when no valid credential was presented.
var Anonymous = Actor{}

// Authenticated reports whether the actor carries a resolved identity.
func (a Actor) Authenticated() bool {
	return a.ID != 0 && a.Role.Valid()
}

func (a Actor) is(roles ...model.Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Resource carries the resolved attributes of the target.
type Resource struct {
	// OwnerID is the store owner (store actions) or the rating author
	// (rating actions).
	OwnerID uint
	// AlreadyRated is set when the actor has rated the target store.
	AlreadyRated bool
	// OwnedStores is the number of stores owned by a user being deleted.
	OwnedStores int64
}

// Reason classifies a denial.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotAuthenticated
	ReasonForbidden
	ReasonConflict
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotAuthenticated:
		return "not_authenticated"
	case ReasonForbidden:
		return "forbidden"
	case ReasonConflict:
		return "conflict"
	}
	return "unknown"
}

// Decision is the outcome of Decide.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason, msg string) Decision {
	return Decision{Reason: reason, Message: msg}
}

// Err converts a denial into an error that wraps one of the package
// sentinels. It returns nil for an allowed decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason, Message: d.Message}
}

// DeniedError is returned by Decision.Err.
type DeniedError struct {
	Reason  Reason
	Message string
}

func (e *DeniedError) Error() string {
	return e.Message
}

func (e *DeniedError) Unwrap() error {
	switch e.Reason {
	case ReasonNotAuthenticated:
		return ErrNotAuthenticated
	case ReasonConflict:
		return ErrConflict
	default:
		return ErrForbidden
	}
}

// Message returns the denial text carried by err, or "" if err was not
// produced by the engine.
func Message(err error) string {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Message
	}
	return ""
}

// RegistrationRole applies the self-registration rule: only store_owner may
// be requested, every other value becomes normal_user.
func RegistrationRole(requested model.Role) model.Role {
	if requested == model.RoleStoreOwner {
		return model.RoleStoreOwner
	}
	return model.RoleNormalUser
}
