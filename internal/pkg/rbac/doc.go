// Package rbac wraps a casbin enforcer configured with the community role
// hierarchy (USER < AUTHOR < DEVELOPER < MODERATOR < ADMIN < SUPER_ADMIN).
//
// Policies are held in memory. Subjects are role names; a role inherits every
// permission of the roles below it.
package rbac
