package auth

// CanAccess answers whether the principal may act on the resource owned by
// ownerID. Rules are evaluated in precedence order, first match wins:
//
//  1. Admins may access everything.
//  2. Users may access their own data (resource type matches their role and
//     the owner id is theirs).
//  3. Instructors may access student data. They may NOT access other
//     instructors' data; the asymmetry is intentional.
//
// Everything else is denied. The function is pure and safe to call
// concurrently.
func CanAccess(p *Principal, ownerID int, resource ResourceType) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	if string(resource) == string(p.Role) && ownerID == p.UserID {
		return true
	}
	if p.Role == RoleInstructor && resource == ResourceStudent {
		return true
	}
	return false
}

// CanList answers whether the principal may list all records of a user type.
// Students may never list students; only admins may list instructors or
// admins. This blanket rule sits on top of CanAccess for listing endpoints.
func CanList(p *Principal, resource ResourceType) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	return resource == ResourceStudent && p.Role == RoleInstructor
}

// ResourceFor maps a role to the resource type owned by that role.
func ResourceFor(role Role) ResourceType {
	return ResourceType(role)
}
