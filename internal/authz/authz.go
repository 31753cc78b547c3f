// Package authz decides whether an acting principal may read or write a
// target resource. Every predicate is pure: no store access, no side
// effects, and a deny outcome on missing or malformed input.
package authz

import (
	"github.com/skilltrack/learning-service/internal/models"
)

// Principal is the already-authenticated actor a request runs as.
type Principal struct {
	ID     uint
	Role   models.UserRole
	TeamID *uint
}

// Hierarchy is an ordered role lattice, least to most privileged.
// Deployments pick a three or four tier scheme without touching any of
// the predicates below.
type Hierarchy []models.UserRole

var (
	ThreeTier = Hierarchy{models.RoleEmployee, models.RoleManager, models.RoleAdmin}
	FourTier  = Hierarchy{models.RoleEmployee, models.RoleManager, models.RoleAdmin, models.RoleSysadmin}
)

// Evaluator answers allow/deny questions against a fixed hierarchy.
type Evaluator struct {
	hierarchy Hierarchy
	rank      map[models.UserRole]int
}

func NewEvaluator(h Hierarchy) *Evaluator {
	rank := make(map[models.UserRole]int, len(h))
	for i, r := range h {
		rank[r] = i
	}
	return &Evaluator{hierarchy: h, rank: rank}
}

// Rank returns the position of the role in the hierarchy, or -1 for a
// role the hierarchy does not know. Unknown roles never pass any check.
func (e *Evaluator) Rank(role models.UserRole) int {
	if r, ok := e.rank[role]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether role sits at or above min in the hierarchy.
func (e *Evaluator) AtLeast(role, min models.UserRole) bool {
	r, m := e.Rank(role), e.Rank(min)
	if r < 0 || m < 0 {
		return false
	}
	return r >= m
}

func (e *Evaluator) valid(actor Principal) bool {
	return actor.ID != 0 && e.Rank(actor.Role) >= 0
}

func (e *Evaluator) isOrgAdmin(actor Principal) bool {
	return e.AtLeast(actor.Role, models.RoleAdmin)
}

func sameTeam(a *uint, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

// CanViewUser decides whether actor may read another user's profile and
// enrollments. Admins see everyone, managers see their own team,
// employees see only themselves.
func (e *Evaluator) CanViewUser(actor Principal, targetID uint, targetTeamID *uint) bool {
	if !e.valid(actor) {
		return false
	}
	if actor.ID == targetID {
		return true
	}
	if e.isOrgAdmin(actor) {
		return true
	}
	if actor.Role == models.RoleManager {
		return sameTeam(actor.TeamID, targetTeamID)
	}
	return false
}

// CanAssignCourse decides whether actor may assign a course to the target
// user. Only employees are assignable targets; managers are restricted to
// their own team.
func (e *Evaluator) CanAssignCourse(actor Principal, targetRole models.UserRole, targetTeamID *uint) bool {
	if !e.valid(actor) {
		return false
	}
	if targetRole != models.RoleEmployee {
		return false
	}
	if e.isOrgAdmin(actor) {
		return true
	}
	if actor.Role == models.RoleManager {
		return sameTeam(actor.TeamID, targetTeamID)
	}
	return false
}

// CanSelfEnroll decides whether actor may enroll themselves in a course.
// Admin-tier roles are deliberately excluded.
func (e *Evaluator) CanSelfEnroll(actor Principal) bool {
	if !e.valid(actor) {
		return false
	}
	return actor.Role == models.RoleEmployee || actor.Role == models.RoleManager
}

// CanViewTeam decides whether actor may read a team's member listing or
// team-scoped metrics.
func (e *Evaluator) CanViewTeam(actor Principal, teamID uint) bool {
	if !e.valid(actor) {
		return false
	}
	if e.isOrgAdmin(actor) {
		return true
	}
	if actor.Role == models.RoleManager {
		return actor.TeamID != nil && *actor.TeamID == teamID
	}
	return false
}

// CanAdministerOrg gates organization-wide metrics and user administration.
func (e *Evaluator) CanAdministerOrg(actor Principal) bool {
	if !e.valid(actor) {
		return false
	}
	return e.isOrgAdmin(actor)
}
