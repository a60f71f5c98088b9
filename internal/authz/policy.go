package authz

import "github.com/ikkim/store-rating-backend/internal/app/model"

const msgNotAuthenticated = "Not authorized to access this route"

// Decide evaluates the rule table for action.
func Decide(actor Actor, action Action, res Resource) Decision {
	switch action {
	case ActionRegister, ActionListStores, ActionViewStore, ActionViewStoreRatings, ActionWatchStoreRatings:
		return allow()
	}

	if !actor.Authenticated() {
		return deny(ReasonNotAuthenticated, msgNotAuthenticated)
	}

	switch action {
	case ActionViewProfile, ActionChangePassword, ActionLogout, ActionViewOwnRatings:
		return allow()

	case ActionListUsers, ActionViewUser, ActionCreateUser, ActionUpdateUser, ActionViewUserStats:
		return adminOnly(actor, "Not authorized to manage users")

	case ActionDeleteUser:
		if d := adminOnly(actor, "Not authorized to delete users"); !d.Allowed {
			return d
		}
		if res.OwnedStores > 0 {
			return deny(ReasonConflict, "Cannot delete user who owns stores. Please reassign or delete the stores first.")
		}
		return allow()

	case ActionCreateStore:
		if actor.is(model.RoleStoreOwner, model.RoleAdmin) {
			return allow()
		}
		return deny(ReasonForbidden, "Only store owners can create stores")

	case ActionUpdateStore:
		return ownerOrAdmin(actor, res, "Not authorized to update this store")

	case ActionDeleteStore:
		return ownerOrAdmin(actor, res, "Not authorized to delete this store")

	case ActionAssignStoreOwner:
		return adminOnly(actor, "Only admins can assign store owners")

	case ActionViewOwnedStores:
		if actor.is(model.RoleStoreOwner) {
			return allow()
		}
		return deny(ReasonForbidden, "Only store owners can access owned stores")

	case ActionViewStoreStatsByID:
		return ownerOrAdmin(actor, res, "Not authorized to access stats for this store")

	case ActionCreateRating:
		if !actor.is(model.RoleNormalUser) {
			return deny(ReasonForbidden, "Only normal users can rate stores")
		}
		if res.AlreadyRated {
			return deny(ReasonConflict, "You have already rated this store")
		}
		return allow()

	case ActionUpdateRating:
		return ownerOrAdmin(actor, res, "Not authorized to update this rating")

	case ActionDeleteRating:
		return ownerOrAdmin(actor, res, "Not authorized to delete this rating")

	case ActionListRatings, ActionViewRatingStats:
		return adminOnly(actor, "Not authorized to view all ratings")

	case ActionViewStoreStats, ActionViewDashboard, ActionExportDashboard:
		return adminOnly(actor, "Not authorized to access dashboard statistics")
	}

	return deny(ReasonForbidden, "Action not permitted")
}

func adminOnly(actor Actor, msg string) Decision {
	if actor.is(model.RoleAdmin) {
		return allow()
	}
	return deny(ReasonForbidden, msg)
}

// ownerOrAdmin allows the resource owner (store owner or rating author) and admins.
func ownerOrAdmin(actor Actor, res Resource, msg string) Decision {
	if actor.is(model.RoleAdmin) {
		return allow()
	}
	if res.OwnerID != 0 && res.OwnerID == actor.ID {
		return allow()
	}
	return deny(ReasonForbidden, msg)
}
