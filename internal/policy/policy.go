// Package policy holds the authorization rules for every (resource, operation)
// pair. Rules are pure functions of the caller and the target; existence
// checks belong to the caller and must run before Authorize.
package policy

import (
	"fmt"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/models"
)

type Resource string

const (
	Article Resource = "article"
	Comment Resource = "comment"
	User    Resource = "user"
	Audit   Resource = "audit"
)

type Operation string

const (
	Create Operation = "create"
	Read   Operation = "read"
	List   Operation = "list"
	Update Operation = "update"
	Delete Operation = "delete"
)

// Target describes the resource being acted upon.
type Target struct {
	// OwnerID is the author of an article or comment, or the id of a user row.
	OwnerID int64
	// RequestedRole is the role a user update asks for; empty when unchanged.
	RequestedRole models.Role
}

type rule func(actor auth.Identity, target Target) bool

type key struct {
	resource Resource
	op       Operation
}

var rules = map[key]rule{
	{Article, Create}: authenticated,
	{Article, Update}: ownerOrAdmin,
	{Article, Delete}: adminOnly,

	{Comment, Create}: authenticated,
	{Comment, Delete}: adminOnly,

	{User, List}:   adminOnly,
	{User, Read}:   ownerOrAdmin,
	{User, Update}: userUpdate,
	{User, Delete}: adminOnly,

	{Audit, List}: adminOnly,
}

func authenticated(actor auth.Identity, _ Target) bool {
	return actor.Authenticated()
}

func adminOnly(actor auth.Identity, _ Target) bool {
	return actor.Authenticated() && actor.IsAdmin()
}

func ownerOrAdmin(actor auth.Identity, target Target) bool {
	if !actor.Authenticated() {
		return false
	}
	return actor.IsAdmin() || actor.ID == target.OwnerID
}

// userUpdate lets users edit themselves but only admins grant a non-default role.
func userUpdate(actor auth.Identity, target Target) bool {
	if !ownerOrAdmin(actor, target) {
		return false
	}
	if target.RequestedRole != "" && target.RequestedRole != models.RoleUser {
		return actor.IsAdmin()
	}
	return true
}

// Allowed reports whether actor may perform op on resource. Unknown pairs are denied.
func Allowed(actor auth.Identity, resource Resource, op Operation, target Target) bool {
	r, ok := rules[key{resource, op}]
	if !ok {
		return false
	}
	return r(actor, target)
}

// Authorize is Allowed expressed as an apperr Authorization error.
func Authorize(actor auth.Identity, resource Resource, op Operation, target Target) error {
	if Allowed(actor, resource, op, target) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("forbidden: cannot %s %s", op, resource))
}
